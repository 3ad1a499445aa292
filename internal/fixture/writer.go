package fixture

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/parquet-go/parquet-go"
)

// TableCount reports how many rows landed in one table.
type TableCount struct {
	Name string
	Rows int
}

// WritePartitioned writes the dataset as hive-partitioned parquet under
// dir/<table>/dt=<date>/data.parquet. Table order is stable.
func WritePartitioned(dir string, ds Dataset) ([]TableCount, error) {
	counts := make([]TableCount, 0, 5)

	n, err := writeTable(dir, "accounts", ds.Accounts, func(r Account) string { return r.Partition })
	if err != nil {
		return nil, err
	}
	counts = append(counts, TableCount{Name: "accounts", Rows: n})

	n, err = writeTable(dir, "users", ds.Users, func(r User) string { return r.Partition })
	if err != nil {
		return nil, err
	}
	counts = append(counts, TableCount{Name: "users", Rows: n})

	n, err = writeTable(dir, "sessions", ds.Sessions, func(r Session) string { return r.Partition })
	if err != nil {
		return nil, err
	}
	counts = append(counts, TableCount{Name: "sessions", Rows: n})

	n, err = writeTable(dir, "api_requests", ds.APIRequests, func(r APIRequest) string { return r.Partition })
	if err != nil {
		return nil, err
	}
	counts = append(counts, TableCount{Name: "api_requests", Rows: n})

	n, err = writeTable(dir, "error_logs", ds.ErrorLogs, func(r ErrorLog) string { return r.Partition })
	if err != nil {
		return nil, err
	}
	counts = append(counts, TableCount{Name: "error_logs", Rows: n})

	return counts, nil
}

func writeTable[T any](dir, table string, rows []T, partitionOf func(T) string) (int, error) {
	byPartition := map[string][]T{}
	for _, row := range rows {
		partition := partitionOf(row)
		byPartition[partition] = append(byPartition[partition], row)
	}

	total := 0
	for partition, partitionRows := range byPartition {
		partDir := filepath.Join(dir, table, "dt="+partition)
		if err := os.MkdirAll(partDir, 0o755); err != nil {
			return total, fmt.Errorf("create partition dir %q: %w", partDir, err)
		}
		path := filepath.Join(partDir, "data.parquet")
		if err := writeParquet(path, partitionRows); err != nil {
			return total, fmt.Errorf("write %s partition %s: %w", table, partition, err)
		}
		total += len(partitionRows)
	}
	return total, nil
}

func writeParquet[T any](path string, rows []T) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create parquet file: %w", err)
	}
	writer := parquet.NewGenericWriter[T](file)
	if _, err := writer.Write(rows); err != nil {
		_ = file.Close()
		return fmt.Errorf("write rows: %w", err)
	}
	if err := writer.Close(); err != nil {
		_ = file.Close()
		return fmt.Errorf("close writer: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("close file: %w", err)
	}
	return nil
}
