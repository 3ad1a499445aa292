package fixture

import "fmt"

// VerifyScenarios summarizes the planted scenarios so a generation run can
// confirm each one is discoverable in the output.
func VerifyScenarios(ds Dataset) []string {
	var lines []string

	badDeploy := 0
	requestsByAccountDay := map[string]map[string]int{}
	latencySum := map[string]int64{}
	latencyCount := map[string]int{}
	insider := 0
	puppetRequests := 0
	puppetUsers := map[string]bool{}

	for _, req := range ds.APIRequests {
		if req.Endpoint == "/api/v1/reports/export" && req.StatusCode == 500 && req.Partition == "2026-01-14" {
			badDeploy++
		}
		if req.AccountID == "acct_042" {
			byDay := requestsByAccountDay["acct_042"]
			if byDay == nil {
				byDay = map[string]int{}
				requestsByAccountDay["acct_042"] = byDay
			}
			byDay[req.Partition]++
		}
		if req.AccountID == "acct_003" {
			latencySum[req.Partition] += req.ResponseTimeMS
			latencyCount[req.Partition]++
		}
		if req.UserID == "usr_034" && req.AccountID == "acct_007" {
			insider++
		}
		if req.AccountID == "acct_019" {
			puppetRequests++
			puppetUsers[req.UserID] = true
		}
	}

	lines = append(lines, fmt.Sprintf("Bad deployment: %d 500s on /api/v1/reports/export on 2026-01-14 between 14:00-14:30", badDeploy))
	for _, date := range Dates {
		lines = append(lines, fmt.Sprintf("Silent dropout: acct_042 on %s = %d requests", date, requestsByAccountDay["acct_042"][date]))
	}
	for _, date := range Dates {
		if latencyCount[date] > 0 {
			avg := latencySum[date] / int64(latencyCount[date])
			lines = append(lines, fmt.Sprintf("Latency spike: acct_003 on %s = avg %dms (%d requests)", date, avg, latencyCount[date]))
		}
	}
	lines = append(lines, fmt.Sprintf("Insider exfiltration: %d requests by usr_034 on churned acct_007 at 2 AM", insider))
	lines = append(lines, fmt.Sprintf("Rate limit bypass: %d requests from %d puppet users on free-tier acct_019", puppetRequests, len(puppetUsers)))

	return lines
}
