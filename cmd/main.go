package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/delacruzpj/deskhub_client/internal/api"
	"github.com/delacruzpj/deskhub_client/internal/apperrors"
	"github.com/delacruzpj/deskhub_client/internal/cache"
	"github.com/delacruzpj/deskhub_client/internal/config"
	"github.com/delacruzpj/deskhub_client/internal/guard"
	"github.com/delacruzpj/deskhub_client/internal/models"
	"github.com/delacruzpj/deskhub_client/internal/service"
	"github.com/delacruzpj/deskhub_client/internal/session"
	"github.com/delacruzpj/deskhub_client/internal/viewstate"
	"github.com/delacruzpj/deskhub_client/pkg/logger"
	"github.com/delacruzpj/deskhub_client/pkg/redisclient"
)

// app ties the client components to the terminal shell: one current route,
// one optional list poller, one open detail view.
type app struct {
	cfg      *config.Config
	log      *logrus.Logger
	sessions *session.Manager
	auth     *service.AuthService
	reports  *service.ReportService
	store    *cache.Cache
	detail   *viewstate.Detail

	route  string
	poller *cache.Poller
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	log := logger.New(cfg.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// session persistence backend
	var store session.Store
	switch cfg.SessionStore {
	case config.SessionStoreRedis:
		rdb, err := redisclient.New(ctx, cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer rdb.Close()
		store = session.NewRedisStore(rdb, cfg.SessionTTL)
	default:
		store = session.NewFileStore(cfg.SessionFile)
	}

	sessions := session.NewManager(store, log)

	client := api.NewClient(cfg, log)
	reportCache := cache.New(service.NewFetcher(client, sessions), log)
	// a login under a different account, or a logout, must drop every
	// cached report list
	sessions.OnInvalidate(reportCache.InvalidateAll)

	reportSvc := service.NewReportService(client, reportCache, sessions, log, cfg)
	authSvc := service.NewAuthService(client, sessions, log)
	detail := viewstate.NewDetail(reportSvc, log)

	a := &app{
		cfg:      cfg,
		log:      log,
		sessions: sessions,
		auth:     authSvc,
		reports:  reportSvc,
		store:    reportCache,
		detail:   detail,
		route:    guard.RouteLogin,
	}

	if err := sessions.Restore(ctx); err != nil {
		log.WithError(err).Warn("Could not restore persisted session")
	}
	if sess := sessions.Current(); sess != nil {
		a.navigate(ctx, guard.HomeRoute(sess.Identity.Role))
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-quit
		cancel()
	}()

	a.repl(ctx)

	a.stopPolling()
	log.Info("Client stopped")
}

func (a *app) repl(ctx context.Context) {
	scanner := bufio.NewScanner(os.Stdin)
	fmt.Println("deskhub client. Type 'help' for commands.")
	for {
		fmt.Printf("[%s]> ", a.route)
		if !scanner.Scan() {
			return
		}
		select {
		case <-ctx.Done():
			return
		default:
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		parts := strings.Fields(line)
		cmd, args := parts[0], parts[1:]

		if cmd == "quit" || cmd == "exit" {
			return
		}
		if err := a.dispatch(ctx, cmd, args, scanner); err != nil {
			var authErr *apperrors.AuthError
			if errors.As(err, &authErr) {
				// expired or rejected token: back through login
				fmt.Printf("session no longer valid: %v\n", authErr)
				_, _ = a.auth.Logout(ctx)
				a.navigate(ctx, guard.RouteLogin)
				continue
			}
			fmt.Printf("error: %v\n", err)
		}
	}
}

func (a *app) dispatch(ctx context.Context, cmd string, args []string, scanner *bufio.Scanner) error {
	switch cmd {
	case "help":
		printHelp()
		return nil
	case "login":
		if len(args) != 2 {
			return fmt.Errorf("usage: login <contact_num> <password>")
		}
		sess, err := a.auth.Login(ctx, args[0], args[1])
		if err != nil {
			return err
		}
		a.navigate(ctx, guard.HomeRoute(sess.Identity.Role))
		return nil
	case "logout":
		a.detail.Close()
		route, err := a.auth.Logout(ctx)
		if err != nil {
			return err
		}
		a.navigate(ctx, route)
		return nil
	case "go":
		if len(args) != 1 {
			return fmt.Errorf("usage: go <route>")
		}
		a.navigate(ctx, args[0])
		return nil
	case "list":
		reports, err := a.reports.List()
		if err != nil {
			return err
		}
		meta, _ := a.cacheMeta()
		if meta.Stale {
			fmt.Printf("(showing last good data; refresh failed: %v)\n", meta.Err)
		}
		if len(reports) == 0 {
			fmt.Println("no reports")
			return nil
		}
		for _, r := range reports {
			fmt.Printf("%s  %-10s  %-18s  %s, %s  (%s)\n",
				r.ID, r.Status, r.IncidentType, r.BarangayIncident, r.City,
				r.CreatedAt.Format("2006-01-02 15:04"))
		}
		return nil
	case "stats":
		stats, err := a.reports.Stats()
		if err != nil {
			return err
		}
		fmt.Printf("unopened: %d  in progress: %d  resolved: %d  total: %d\n",
			stats.Unopened, stats.InProgress, stats.Resolved, stats.Total)
		return nil
	case "open":
		if len(args) != 1 {
			return fmt.Errorf("usage: open <report-id>")
		}
		rep, err := a.detail.Open(ctx, args[0])
		if rep != nil {
			printReport(rep)
		}
		return err
	case "close":
		a.detail.Close()
		return nil
	case "edit":
		return a.detail.BeginEdit()
	case "set":
		if len(args) < 2 {
			return fmt.Errorf("usage: set <field> <value>")
		}
		return a.detail.SetField(args[0], strings.Join(args[1:], " "))
	case "cancel":
		return a.detail.Cancel()
	case "save":
		rep, err := a.detail.Save(ctx)
		if err != nil {
			return err
		}
		printReport(rep)
		return nil
	case "status":
		if len(args) != 1 {
			return fmt.Errorf("usage: status <pending|resolved|opened>")
		}
		target, err := models.ParseStatus(args[0])
		if err != nil {
			return err
		}
		rep, err := a.detail.SetStatus(ctx, target)
		if err != nil {
			return err
		}
		fmt.Printf("status is now %s\n", rep.Status)
		return nil
	case "file":
		return a.fileCase(ctx, strings.Join(args, " "))
	case "delete":
		// blocking confirmation step before anything is issued
		fmt.Print("This permanently deletes the open case. Type 'yes' to confirm: ")
		if !scanner.Scan() {
			return nil
		}
		confirmed := strings.TrimSpace(scanner.Text()) == "yes"
		if err := a.detail.Delete(ctx, confirmed); err != nil {
			return err
		}
		fmt.Println("case deleted")
		return nil
	case "passwd":
		if len(args) != 2 {
			return fmt.Errorf("usage: passwd <new-password> <confirm>")
		}
		return a.auth.ChangePassword(ctx, args[0], args[1])
	case "signup":
		return a.signup(ctx, strings.Join(args, " "))
	case "profile":
		return a.updateProfile(ctx, strings.Join(args, " "))
	}
	return fmt.Errorf("unknown command %q, try 'help'", cmd)
}

// signup parses "name|dob|city|brgy|contact|password|id-scan-path".
func (a *app) signup(ctx context.Context, line string) error {
	fields := strings.Split(line, "|")
	if len(fields) != 7 {
		return fmt.Errorf("usage: signup <name>|<dob>|<city>|<brgy>|<contact>|<password>|<id-scan-path>")
	}
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}

	scan, err := os.ReadFile(fields[6])
	if err != nil {
		return fmt.Errorf("read id scan: %w", err)
	}

	sess, err := a.auth.Signup(ctx, api.SignupRequest{
		Name:                fields[0],
		DOB:                 fields[1],
		City:                fields[2],
		BarangayComplainant: fields[3],
		ContactNum:          fields[4],
		Password:            fields[5],
		Role:                "user",
		ValidID: api.SignupAttachment{
			Filename: filepath.Base(fields[6]),
			MIMEType: "image/jpeg",
			Content:  scan,
		},
	})
	if err != nil {
		return err
	}
	a.navigate(ctx, guard.HomeRoute(sess.Identity.Role))
	return nil
}

// updateProfile parses "name|city|barangay|contact".
func (a *app) updateProfile(ctx context.Context, line string) error {
	fields := strings.Split(line, "|")
	if len(fields) != 4 {
		return fmt.Errorf("usage: profile <name>|<city>|<barangay>|<contact>")
	}
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}

	sess, err := a.auth.UpdateProfile(ctx, api.UpdateProfileRequest{
		Name:       fields[0],
		City:       fields[1],
		Barangay:   fields[2],
		ContactNum: fields[3],
	})
	if err != nil {
		return err
	}
	fmt.Printf("profile updated for %s\n", sess.Identity.Name)
	return nil
}

// fileCase parses "type|name|city|brgy complainant|brgy incident|description".
func (a *app) fileCase(ctx context.Context, line string) error {
	fields := strings.Split(line, "|")
	if len(fields) != 6 {
		return fmt.Errorf("usage: file <type>|<name>|<city>|<brgy complainant>|<brgy incident>|<description>")
	}
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}

	rep, err := a.reports.File(ctx, service.FileCaseInput{
		IncidentType:        fields[0],
		Name:                fields[1],
		City:                fields[2],
		BarangayComplainant: fields[3],
		BarangayIncident:    fields[4],
		Description:         fields[5],
		ReporterType:        "victim",
	})
	if err != nil {
		return err
	}
	fmt.Printf("case filed: %s (%s)\n", rep.ID, rep.Status)
	return nil
}

// navigate runs the access guard and switches screens, starting or stopping
// the list poller so no timer outlives its screen.
func (a *app) navigate(ctx context.Context, route string) {
	switch guard.Check(a.sessions.Current(), route) {
	case guard.RedirectLogin:
		fmt.Println("please log in first")
		route = guard.RouteLogin
	case guard.RedirectUnauthorized:
		fmt.Println("you are not allowed to view that screen")
		route = guard.RouteUnauthorized
	}

	if a.route == route {
		return
	}

	a.stopPolling()
	a.detail.Close()
	a.route = route

	if route == guard.RouteCases || route == guard.RouteAgentCases || route == guard.RouteDashboard {
		if sess := a.sessions.Current(); sess != nil {
			a.poller = a.store.StartPolling(ctx, service.OwnerKey(sess), a.cfg.PollInterval)
		}
	}
}

func (a *app) stopPolling() {
	if a.poller != nil {
		a.poller.Stop()
		a.poller = nil
	}
}

func (a *app) cacheMeta() (cache.Meta, bool) {
	sess := a.sessions.Current()
	if sess == nil {
		return cache.Meta{}, false
	}
	return a.store.Meta(service.OwnerKey(sess)), true
}

func printReport(r *models.Report) {
	fmt.Printf("case %s  [%s]\n", r.ID, r.Status)
	fmt.Printf("  type:        %s\n", r.IncidentType)
	fmt.Printf("  reporter:    %s (%s)\n", r.ReporterName, r.ReporterType)
	fmt.Printf("  location:    %s, %s\n", r.BarangayIncident, r.City)
	fmt.Printf("  filed:       %s\n", r.CreatedAt.Format("January 2, 2006 15:04"))
	fmt.Printf("  description: %s\n", r.Description)
	for _, ev := range r.Evidence {
		fmt.Printf("  evidence:    %s %s\n", ev.Kind, ev.URL)
	}
}

func printHelp() {
	fmt.Println(`commands:
  login <contact_num> <password>   log in
  logout                           log out and return to the login screen
  go <route>                       navigate (e.g. /cases, /agentcases, /dashboard)
  list                             show the cached report list
  stats                            show dashboard counts
  open <report-id>                 open a report's detail view
  edit | set <field> <value> | save | cancel
                                   edit the open report (reporters)
  status <pending|resolved>        change the open report's status (agents)
  file <type>|<name>|<city>|<brgy complainant>|<brgy incident>|<description>
                                   file a new case (reporters)
  delete                           delete the open case (asks for confirmation)
  passwd <new> <confirm>           change password
  profile <name>|<city>|<barangay>|<contact>
                                   update account profile
  signup <name>|<dob>|<city>|<brgy>|<contact>|<password>|<id-scan-path>
                                   register a new reporter account
  quit`)
}
