// Package fixture generates the synthetic SaaS telemetry dataset used to
// exercise queries locally. Five partitioned tables carry five planted
// investigation scenarios:
//
//  1. Bad deployment: /api/v1/reports/export returns 500s for ~30 min on Jan 14
//  2. Silent dropout: enterprise acct_042 goes completely silent on Jan 15
//  3. Latency spike: enterprise acct_003 response times jump 5-10x on Jan 15
//  4. Insider exfil: usr_034 bulk exports from churned acct_007 at 2 AM
//  5. Rate limit bypass: 5 puppet users on free-tier acct_019 share one IP
package fixture

import (
	"fmt"
	"math/rand"
	"time"
)

const DefaultSeed = 42

var Dates = []string{"2026-01-13", "2026-01-14", "2026-01-15"}

var (
	plans      = []string{"free", "starter", "pro", "enterprise"}
	planLimits = map[string]int64{"free": 1000, "starter": 5000, "pro": 25000, "enterprise": 100000}
	countries  = []string{"US", "GB", "DE", "CA", "AU", "FR", "JP", "BR", "IN", "SG"}
	userAgents = []string{
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7)",
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64)",
		"Mozilla/5.0 (X11; Linux x86_64)",
		"okhttp/4.12.0",
		"python-requests/2.31.0",
	}
)

type endpoint struct {
	Method string
	Path   string
}

var endpoints = []endpoint{
	{"GET", "/api/v1/users"},
	{"GET", "/api/v1/accounts"},
	{"POST", "/api/v1/users"},
	{"PUT", "/api/v1/users/{id}"},
	{"GET", "/api/v1/reports"},
	{"POST", "/api/v1/reports/export"},
	{"GET", "/api/v1/billing"},
	{"POST", "/auth/login"},
	{"POST", "/auth/logout"},
	{"GET", "/api/v1/settings"},
	{"PUT", "/api/v1/settings"},
	{"GET", "/api/v1/integrations"},
	{"POST", "/api/v1/integrations"},
	{"DELETE", "/api/v1/integrations/{id}"},
	{"GET", "/api/v1/audit-log"},
}

type Account struct {
	AccountID           string `parquet:"account_id"`
	Name                string `parquet:"name"`
	Plan                string `parquet:"plan"`
	MonthlyRequestLimit int64  `parquet:"monthly_request_limit"`
	Status              string `parquet:"status"`
	CreatedAt           string `parquet:"created_at"`
	Partition           string `parquet:"-"`
}

type User struct {
	UserID    string `parquet:"user_id"`
	AccountID string `parquet:"account_id"`
	Email     string `parquet:"email"`
	Role      string `parquet:"role"`
	Status    string `parquet:"status"`
	CreatedAt string `parquet:"created_at"`
	Partition string `parquet:"-"`
}

type Session struct {
	SessionID       string `parquet:"session_id"`
	UserID          string `parquet:"user_id"`
	AccountID       string `parquet:"account_id"`
	IPAddress       string `parquet:"ip_address"`
	Country         string `parquet:"country"`
	UserAgent       string `parquet:"user_agent"`
	StartedAt       string `parquet:"started_at"`
	DurationSeconds int64  `parquet:"duration_seconds"`
	Partition       string `parquet:"-"`
}

type APIRequest struct {
	RequestID      string `parquet:"request_id"`
	AccountID      string `parquet:"account_id"`
	UserID         string `parquet:"user_id"`
	Method         string `parquet:"method"`
	Endpoint       string `parquet:"endpoint"`
	StatusCode     int64  `parquet:"status_code"`
	ResponseTimeMS int64  `parquet:"response_time_ms"`
	IPAddress      string `parquet:"ip_address"`
	UserAgent      string `parquet:"user_agent"`
	Timestamp      string `parquet:"timestamp"`
	Partition      string `parquet:"-"`
}

type ErrorLog struct {
	ErrorID   string `parquet:"error_id"`
	RequestID string `parquet:"request_id"`
	AccountID string `parquet:"account_id"`
	UserID    string `parquet:"user_id"`
	ErrorType string `parquet:"error_type"`
	Message   string `parquet:"message"`
	Endpoint  string `parquet:"endpoint"`
	IPAddress string `parquet:"ip_address"`
	Timestamp string `parquet:"timestamp"`
	Partition string `parquet:"-"`
}

// Dataset holds all generated rows before partitioned writing.
type Dataset struct {
	Accounts    []Account
	Users       []User
	Sessions    []Session
	APIRequests []APIRequest
	ErrorLogs   []ErrorLog
}

type Generator struct {
	rnd *rand.Rand
}

func NewGenerator(seed int64) *Generator {
	return &Generator{rnd: rand.New(rand.NewSource(seed))}
}

// Generate produces the full dataset. Output is deterministic for a given
// seed.
func (g *Generator) Generate() Dataset {
	accounts := g.generateAccounts()
	users := g.generateUsers(accounts)
	sessions := g.generateSessions(users)
	requests := g.generateAPIRequests(users, accounts)
	errorLogs := g.generateErrorLogs(requests)

	return Dataset{
		Accounts:    accounts,
		Users:       users,
		Sessions:    sessions,
		APIRequests: requests,
		ErrorLogs:   errorLogs,
	}
}

func (g *Generator) generateAccounts() []Account {
	accounts := make([]Account, 0, 100)
	for i := 1; i <= 100; i++ {
		acctID := makeID("acct", i)
		plan := pickOne(g.rnd, plans)
		status := "active"

		switch acctID {
		case "acct_003":
			plan = "enterprise"
		case "acct_007":
			plan = "pro"
			status = "churned"
		case "acct_019":
			plan = "free"
		case "acct_042":
			plan = "enterprise"
		default:
			if g.rnd.Float64() < 0.05 {
				status = "churned"
			}
		}

		accounts = append(accounts, Account{
			AccountID:           acctID,
			Name:                fmt.Sprintf("Company %d", i),
			Plan:                plan,
			MonthlyRequestLimit: planLimits[plan],
			Status:              status,
			CreatedAt:           stamp("2025-06-01", g.rnd.Intn(24), g.rnd.Intn(60), 0),
			Partition:           pickOne(g.rnd, Dates),
		})
	}
	return accounts
}

func (g *Generator) generateUsers(accounts []Account) []User {
	users := make([]User, 0, 300)
	counter := 1

	for _, acct := range accounts {
		if acct.AccountID == "acct_019" {
			// puppet users created at the same minute
			puppetCreated := stamp("2026-01-14", 3, 22, 0)
			for j := 0; j < 5; j++ {
				users = append(users, User{
					UserID:    makeID("usr", counter),
					AccountID: acct.AccountID,
					Email:     fmt.Sprintf("user%d@company19.com", counter),
					Role:      "member",
					Status:    "active",
					CreatedAt: puppetCreated,
					Partition: "2026-01-14",
				})
				counter++
			}
			continue
		}

		nUsers := 1 + g.rnd.Intn(6)
		for j := 0; j < nUsers; j++ {
			uid := makeID("usr", counter)
			role := "member"
			if j == 0 || uid == "usr_034" {
				role = "admin"
			}
			users = append(users, User{
				UserID:    uid,
				AccountID: acct.AccountID,
				Email:     fmt.Sprintf("user%d@company%s.com", counter, acct.AccountID[len("acct_"):]),
				Role:      role,
				Status:    "active",
				CreatedAt: stamp("2025-07-01", g.rnd.Intn(24), g.rnd.Intn(60), 0),
				Partition: pickOne(g.rnd, Dates),
			})
			counter++
		}
	}
	return users
}

func (g *Generator) generateSessions(users []User) []Session {
	const (
		puppetIP = "203.0.113.77"
		puppetUA = "python-requests/2.31.0"
	)
	sessions := make([]Session, 0, 600)
	counter := 1

	for _, user := range users {
		switch {
		case user.AccountID == "acct_019":
			for _, date := range Dates {
				sessions = append(sessions, Session{
					SessionID:       makeID("sess", counter),
					UserID:          user.UserID,
					AccountID:       user.AccountID,
					IPAddress:       puppetIP,
					Country:         "US",
					UserAgent:       puppetUA,
					StartedAt:       g.randStamp(date),
					DurationSeconds: int64(60 + g.rnd.Intn(7141)),
					Partition:       date,
				})
				counter++
			}
			continue

		case user.AccountID == "acct_042":
			// sessions only on Jan 13 and 14, silent on the 15th
			for _, date := range Dates[:2] {
				sessions = append(sessions, Session{
					SessionID:       makeID("sess", counter),
					UserID:          user.UserID,
					AccountID:       user.AccountID,
					IPAddress:       g.randIP(),
					Country:         "US",
					UserAgent:       pickOne(g.rnd, userAgents[:3]),
					StartedAt:       g.randStamp(date),
					DurationSeconds: int64(300 + g.rnd.Intn(6901)),
					Partition:       date,
				})
				counter++
			}
			continue
		}

		if user.UserID == "usr_034" {
			sessions = append(sessions, Session{
				SessionID:       makeID("sess", counter),
				UserID:          user.UserID,
				AccountID:       user.AccountID,
				IPAddress:       "185.220.101.33",
				Country:         "RO",
				UserAgent:       pickOne(g.rnd, userAgents[:3]),
				StartedAt:       stamp("2026-01-15", 2, 5, 0),
				DurationSeconds: 3600,
				Partition:       "2026-01-15",
			})
			counter++
		}

		nSessions := 1 + g.rnd.Intn(3)
		for s := 0; s < nSessions; s++ {
			date := pickOne(g.rnd, Dates)
			sessions = append(sessions, Session{
				SessionID:       makeID("sess", counter),
				UserID:          user.UserID,
				AccountID:       user.AccountID,
				IPAddress:       g.randIP(),
				Country:         pickOne(g.rnd, countries),
				UserAgent:       pickOne(g.rnd, userAgents),
				StartedAt:       g.randStamp(date),
				DurationSeconds: int64(30 + g.rnd.Intn(7171)),
				Partition:       date,
			})
			counter++
		}
	}
	return sessions
}

func (g *Generator) generateAPIRequests(users []User, accounts []Account) []APIRequest {
	requests := make([]APIRequest, 0, 6000)
	counter := 1

	next := func(r APIRequest) {
		r.RequestID = makeID("req", counter)
		counter++
		requests = append(requests, r)
	}

	flagged := map[string]bool{"acct_019": true, "acct_007": true, "acct_042": true, "acct_003": true}
	var normalUsers []User
	usersByAccount := map[string][]string{}
	for _, user := range users {
		usersByAccount[user.AccountID] = append(usersByAccount[user.AccountID], user.UserID)
		if !flagged[user.AccountID] {
			normalUsers = append(normalUsers, user)
		}
	}

	// background traffic
	statusCodes := []int64{200, 201, 400, 401, 403, 404, 500}
	statusWeights := []int{60, 10, 8, 5, 3, 8, 6}
	for i := 0; i < 2400; i++ {
		user := normalUsers[g.rnd.Intn(len(normalUsers))]
		date := pickOne(g.rnd, Dates)
		ep := endpoints[g.rnd.Intn(len(endpoints))]
		next(APIRequest{
			AccountID:      user.AccountID,
			UserID:         user.UserID,
			Method:         ep.Method,
			Endpoint:       ep.Path,
			StatusCode:     statusCodes[pickWeighted(g.rnd, statusWeights)],
			ResponseTimeMS: int64(15 + g.rnd.Intn(786)),
			IPAddress:      g.randIP(),
			UserAgent:      pickOne(g.rnd, userAgents),
			Timestamp:      g.randStamp(date),
			Partition:      date,
		})
	}

	// scenario 1: bad deployment window on Jan 14, 14:00-14:30
	var activeAccounts []string
	for _, acct := range accounts {
		if acct.Status == "active" {
			activeAccounts = append(activeAccounts, acct.AccountID)
		}
	}
	for i := 0; i < 150; i++ {
		acctID := activeAccounts[g.rnd.Intn(len(activeAccounts))]
		acctUsers := usersByAccount[acctID]
		uid := "usr_001"
		if len(acctUsers) > 0 {
			uid = acctUsers[g.rnd.Intn(len(acctUsers))]
		}
		next(APIRequest{
			AccountID:      acctID,
			UserID:         uid,
			Method:         "POST",
			Endpoint:       "/api/v1/reports/export",
			StatusCode:     500,
			ResponseTimeMS: int64(5000 + g.rnd.Intn(10001)),
			IPAddress:      g.randIP(),
			UserAgent:      pickOne(g.rnd, userAgents),
			Timestamp:      stamp("2026-01-14", 14, g.rnd.Intn(30), g.rnd.Intn(60)),
			Partition:      "2026-01-14",
		})
	}

	// scenario 2: healthy traffic then total silence for acct_042 on Jan 15
	dropoutUsers := usersByAccount["acct_042"]
	for _, date := range Dates[:2] {
		n := 40 + g.rnd.Intn(21)
		for i := 0; i < n; i++ {
			ep := endpoints[g.rnd.Intn(len(endpoints))]
			status := int64(200)
			if g.rnd.Intn(100) >= 85 {
				status = 201
			}
			next(APIRequest{
				AccountID:      "acct_042",
				UserID:         dropoutUsers[g.rnd.Intn(len(dropoutUsers))],
				Method:         ep.Method,
				Endpoint:       ep.Path,
				StatusCode:     status,
				ResponseTimeMS: int64(20 + g.rnd.Intn(281)),
				IPAddress:      g.randIP(),
				UserAgent:      pickOne(g.rnd, userAgents[:3]),
				Timestamp:      g.randStamp(date),
				Partition:      date,
			})
		}
	}

	// scenario 3: acct_003 latency degrades 5-10x on Jan 15
	latencyUsers := usersByAccount["acct_003"]
	for _, date := range Dates {
		n := 40 + g.rnd.Intn(21)
		for i := 0; i < n; i++ {
			ep := endpoints[g.rnd.Intn(len(endpoints))]
			responseTime := int64(20 + g.rnd.Intn(281))
			if date == "2026-01-15" {
				responseTime = int64(2000 + g.rnd.Intn(6001))
			}
			next(APIRequest{
				AccountID:      "acct_003",
				UserID:         latencyUsers[g.rnd.Intn(len(latencyUsers))],
				Method:         ep.Method,
				Endpoint:       ep.Path,
				StatusCode:     200,
				ResponseTimeMS: responseTime,
				IPAddress:      g.randIP(),
				UserAgent:      pickOne(g.rnd, userAgents[:3]),
				Timestamp:      g.randStamp(date),
				Partition:      date,
			})
		}
	}

	// scenario 4: usr_034 bulk exports from churned acct_007 at 2 AM
	exportEndpoints := []endpoint{
		{"POST", "/api/v1/reports/export"},
		{"GET", "/api/v1/reports"},
		{"GET", "/api/v1/users"},
		{"GET", "/api/v1/audit-log"},
	}
	for i := 0; i < 35; i++ {
		ep := exportEndpoints[g.rnd.Intn(len(exportEndpoints))]
		next(APIRequest{
			AccountID:      "acct_007",
			UserID:         "usr_034",
			Method:         ep.Method,
			Endpoint:       ep.Path,
			StatusCode:     200,
			ResponseTimeMS: int64(200 + g.rnd.Intn(1801)),
			IPAddress:      "185.220.101.33",
			UserAgent:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64)",
			Timestamp:      stamp("2026-01-15", 2, g.rnd.Intn(46), g.rnd.Intn(60)),
			Partition:      "2026-01-15",
		})
	}

	// scenario 5: puppet users hammer data endpoints from one IP
	puppetCodes := []int64{200, 201, 429}
	puppetWeights := []int{80, 10, 10}
	for _, uid := range usersByAccount["acct_019"] {
		for _, date := range Dates {
			n := 180 + g.rnd.Intn(41)
			for i := 0; i < n; i++ {
				ep := endpoints[g.rnd.Intn(7)]
				next(APIRequest{
					AccountID:      "acct_019",
					UserID:         uid,
					Method:         ep.Method,
					Endpoint:       ep.Path,
					StatusCode:     puppetCodes[pickWeighted(g.rnd, puppetWeights)],
					ResponseTimeMS: int64(20 + g.rnd.Intn(281)),
					IPAddress:      "203.0.113.77",
					UserAgent:      "python-requests/2.31.0",
					Timestamp:      g.randStamp(date),
					Partition:      date,
				})
			}
		}
	}

	return requests
}

func (g *Generator) generateErrorLogs(requests []APIRequest) []ErrorLog {
	var failed []APIRequest
	for _, req := range requests {
		if req.StatusCode >= 400 {
			failed = append(failed, req)
		}
	}

	sampleSize := 500
	if len(failed) < sampleSize {
		sampleSize = len(failed)
	}
	perm := g.rnd.Perm(len(failed))
	sampled := make([]APIRequest, 0, sampleSize)
	seen := make(map[string]bool, sampleSize)
	for _, idx := range perm[:sampleSize] {
		sampled = append(sampled, failed[idx])
		seen[failed[idx].RequestID] = true
	}

	// every bad-deploy 500 gets an error row so the incident is discoverable
	for _, req := range failed {
		if req.StatusCode == 500 && req.Endpoint == "/api/v1/reports/export" && req.Partition == "2026-01-14" && !seen[req.RequestID] {
			sampled = append(sampled, req)
			seen[req.RequestID] = true
		}
	}

	errorLogs := make([]ErrorLog, 0, len(sampled))
	for i, req := range sampled {
		errorType, message := classifyError(req)
		errorLogs = append(errorLogs, ErrorLog{
			ErrorID:   makeID("err", i+1),
			RequestID: req.RequestID,
			AccountID: req.AccountID,
			UserID:    req.UserID,
			ErrorType: errorType,
			Message:   message,
			Endpoint:  req.Endpoint,
			IPAddress: req.IPAddress,
			Timestamp: req.Timestamp,
			Partition: req.Partition,
		})
	}
	return errorLogs
}

func classifyError(req APIRequest) (string, string) {
	switch req.StatusCode {
	case 401:
		return "AUTH_FAILED", "Invalid credentials"
	case 403:
		return "PERMISSION_DENIED", "Insufficient permissions for this resource"
	case 404:
		return "NOT_FOUND", "Resource not found"
	case 429:
		return "RATE_LIMIT_EXCEEDED", fmt.Sprintf("Rate limit exceeded for account %s", req.AccountID)
	case 400:
		return "VALIDATION_ERROR", "Invalid request parameters"
	case 500:
		if req.Endpoint == "/api/v1/reports/export" && req.Partition == "2026-01-14" {
			return "INTERNAL_ERROR", "NullPointerException in ReportExportService.generateReport()"
		}
		return "INTERNAL_ERROR", "Unexpected server error"
	default:
		return "INTERNAL_ERROR", "Unexpected server error"
	}
}

func (g *Generator) randIP() string {
	return fmt.Sprintf("%d.%d.%d.%d", 10+g.rnd.Intn(190), g.rnd.Intn(256), g.rnd.Intn(256), 1+g.rnd.Intn(254))
}

// randStamp picks a random time within the date, weighted toward business
// hours.
func (g *Generator) randStamp(date string) string {
	hourWeights := make([]int, 24)
	for h := range hourWeights {
		switch {
		case h < 6:
			hourWeights[h] = 1
		case h < 18:
			hourWeights[h] = 3
		default:
			hourWeights[h] = 2
		}
	}
	return stamp(date, pickWeighted(g.rnd, hourWeights), g.rnd.Intn(60), g.rnd.Intn(60))
}

func stamp(date string, hour, minute, second int) string {
	parsed, err := time.Parse("2006-01-02", date)
	if err != nil {
		panic(fmt.Sprintf("bad fixture date %q: %v", date, err))
	}
	return time.Date(parsed.Year(), parsed.Month(), parsed.Day(), hour, minute, second, 0, time.UTC).Format("2006-01-02T15:04:05") + "Z"
}

func makeID(prefix string, n int) string {
	return fmt.Sprintf("%s_%03d", prefix, n)
}

func pickOne(r *rand.Rand, values []string) string {
	return values[r.Intn(len(values))]
}

func pickWeighted(r *rand.Rand, weights []int) int {
	total := 0
	for _, w := range weights {
		total += w
	}
	p := r.Intn(total)
	for i, w := range weights {
		p -= w
		if p < 0 {
			return i
		}
	}
	return len(weights) - 1
}
