package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"minetrack/internal/app"
	"minetrack/internal/config"
	"minetrack/internal/db"
	"minetrack/internal/domain"
	"minetrack/internal/engine"
	"minetrack/internal/engine/auth"
	"minetrack/internal/export"
	"minetrack/internal/repo"
	"minetrack/internal/server"
)

var rootCmd = &cobra.Command{
	Use:   "mt",
	Short: "Minetrack CLI",
	Long: `Minetrack records equipment breakdowns and tracks them through repair.
- Session: log in with name, role and ZP number; the role decides what you may do.
- Equipment: the registry seeded from minetrack.yml; status is running, down, under_repair or idle.
- Downtime: a breakdown report that moves open -> in_progress -> closed.
- Reporting marks the equipment down; closing marks it running again.
- Drift: equipment whose status disagrees with the downtime ledger, view with 'mt drift'.
- Event log: audit trail of every change, view with 'mt log tail'.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		workspace := viper.GetString("workspace")
		if _, err := db.EnsureWorkspace(workspace); err != nil {
			return err
		}
		return nil
	},
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("MINETRACK")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringP("workspace", "w", ".", "workspace directory")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	rootCmd.PersistentFlags().String("log-level", "", "log level (overrides minetrack.yml)")
	rootCmd.PersistentFlags().String("log-format", "", "log format: console or json (overrides minetrack.yml)")
	_ = viper.BindPFlag("workspace", rootCmd.PersistentFlags().Lookup("workspace"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	_ = viper.BindPFlag("log-level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("log-format", rootCmd.PersistentFlags().Lookup("log-format"))
}

func registerCommands() {
	rootCmd.AddCommand(loginCmd())
	rootCmd.AddCommand(logoutCmd())
	rootCmd.AddCommand(whoamiCmd())
	rootCmd.AddCommand(navCmd())
	rootCmd.AddCommand(equipmentCmd())
	rootCmd.AddCommand(downtimeCmd())
	rootCmd.AddCommand(dashboardCmd())
	rootCmd.AddCommand(driftCmd())
	rootCmd.AddCommand(logCmd())
	rootCmd.AddCommand(configCmd())
	rootCmd.AddCommand(serveCmd())
}

func loginCmd() *cobra.Command {
	var in engine.LoginInput
	var role string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Start a session",
		Long:  "Roles: " + roleList(),
		RunE: func(cmd *cobra.Command, args []string) error {
			in.Role = domain.Role(role)
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				s, err := e.Login(ctx, in)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(map[string]any{"session": s, "navigation": engine.NavigationFor(s.Role)})
				}
				fmt.Printf("Logged in as %s (%s)\n", s.Name, s.Role.Label())
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&in.Name, "name", "", "full name")
	cmd.Flags().StringVar(&role, "role", "", "role")
	cmd.Flags().StringVar(&in.ZPNumber, "zp", "", "ZP number")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("role")
	_ = cmd.MarkFlagRequired("zp")
	return cmd
}

func logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				if err := e.Logout(ctx); err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(map[string]any{"ok": true})
				}
				fmt.Println("Logged out")
				return nil
			})
		},
	}
}

func whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the session and its capabilities",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), func(ctx context.Context, e engine.Engine, s domain.Session) error {
				caps := auth.CapabilitiesFor(s.Role)
				if viper.GetBool("json") {
					return printJSON(map[string]any{"session": s, "capabilities": caps})
				}
				fmt.Printf("%s (%s, %s)\n", s.Name, s.Role.Label(), s.ZPNumber)
				tw := newTable("Capability", "Granted")
				for _, c := range auth.AllCapabilities {
					tw.AppendRow(table.Row{c, caps.Has(c)})
				}
				tw.Render()
				return nil
			})
		},
	}
}

func navCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "nav",
		Short: "List the destinations open to the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				nav := e.Navigation(ctx)
				if viper.GetBool("json") {
					return printJSON(nav)
				}
				tw := newTable("Key", "Label", "Path")
				for _, it := range nav.Items {
					tw.AppendRow(table.Row{it.Key, it.Label, it.Path})
				}
				tw.Render()
				fmt.Println("Landing:", nav.Landing)
				return nil
			})
		},
	}
}

func equipmentCmd() *cobra.Command {
	eq := &cobra.Command{Use: "equipment", Short: "Inspect and manage equipment"}
	eq.AddCommand(equipmentListCmd())
	eq.AddCommand(equipmentSetStatusCmd())
	eq.AddCommand(equipmentDowntimeCmd())
	return eq
}

func equipmentListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List equipment",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), func(ctx context.Context, e engine.Engine, s domain.Session) error {
				items, err := e.ListEquipment(ctx, s)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := newTable("ID", "Name", "Type", "Section", "Status")
				for _, it := range items {
					tw.AppendRow(table.Row{it.ID, it.Name, it.MachineType, it.Section, it.Status})
				}
				tw.Render()
				return nil
			})
		},
	}
}

func equipmentSetStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set-status <id> <running|down|under_repair|idle>",
		Short: "Set equipment status without touching downtimes",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), func(ctx context.Context, e engine.Engine, s domain.Session) error {
				change, err := e.SetEquipmentStatus(ctx, s, args[0], domain.EquipmentStatus(args[1]))
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(change)
				}
				fmt.Printf("%s: %s -> %s\n", change.Name, change.From, change.To)
				return nil
			})
		},
	}
}

func equipmentDowntimeCmd() *cobra.Command {
	var byID bool
	cmd := &cobra.Command{
		Use:   "downtime <name>",
		Short: "Show the active downtime of one equipment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), func(ctx context.Context, e engine.Engine, s domain.Session) error {
				var ev domain.DowntimeEvent
				var found bool
				var err error
				if byID {
					ev, found, err = e.FindActiveForEquipmentID(ctx, s, args[0])
				} else {
					ev, found, err = e.FindActiveForEquipment(ctx, s, args[0])
				}
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					if !found {
						return printJSON(map[string]any{"found": false})
					}
					return printJSON(map[string]any{"found": true, "downtime": ev})
				}
				if !found {
					fmt.Println("No active downtime")
					return nil
				}
				printDowntimes([]domain.DowntimeEvent{ev})
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&byID, "id", false, "treat the argument as an equipment id")
	return cmd
}

func downtimeCmd() *cobra.Command {
	dt := &cobra.Command{Use: "downtime", Short: "Report and resolve breakdowns"}
	dt.AddCommand(downtimeReportCmd())
	dt.AddCommand(downtimeStartRepairCmd())
	dt.AddCommand(downtimeCloseCmd())
	dt.AddCommand(downtimeListCmd())
	dt.AddCommand(downtimeActiveCmd())
	dt.AddCommand(downtimeExportCmd())
	return dt
}

func downtimeReportCmd() *cobra.Command {
	var in engine.ReportInput
	var cause string
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Report a breakdown",
		Long:  "Causes: " + causeList(),
		RunE: func(cmd *cobra.Command, args []string) error {
			in.Cause = domain.Cause(cause)
			return withSession(cmd.Context(), func(ctx context.Context, e engine.Engine, s domain.Session) error {
				res, err := e.ReportBreakdown(ctx, s, in)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(res)
				}
				printWarnings(res.Warnings)
				fmt.Printf("Reported %s for %s\n", res.Event.ID, res.Event.EquipmentName)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&in.EquipmentName, "equipment", "", "equipment name")
	cmd.Flags().StringVar(&in.EquipmentType, "type", "", "equipment type (defaults to the registry)")
	cmd.Flags().StringVar(&in.Section, "section", "", "section (defaults to the registry)")
	cmd.Flags().StringVar(&in.Description, "description", "", "what happened")
	cmd.Flags().StringVar(&cause, "cause", "", "cause category")
	_ = cmd.MarkFlagRequired("equipment")
	_ = cmd.MarkFlagRequired("description")
	_ = cmd.MarkFlagRequired("cause")
	return cmd
}

func downtimeStartRepairCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start-repair <id>",
		Short: "Move an open downtime to in_progress",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), func(ctx context.Context, e engine.Engine, s domain.Session) error {
				ev, err := e.StartRepair(ctx, s, args[0])
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(ev)
				}
				fmt.Printf("Repair started on %s (%s)\n", ev.ID, ev.EquipmentName)
				return nil
			})
		},
	}
}

func downtimeCloseCmd() *cobra.Command {
	var in engine.CloseInput
	cmd := &cobra.Command{
		Use:   "close <id>",
		Short: "Close an in_progress downtime",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in.ID = args[0]
			return withSession(cmd.Context(), func(ctx context.Context, e engine.Engine, s domain.Session) error {
				res, err := e.CloseDowntime(ctx, s, in)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(res)
				}
				printWarnings(res.Warnings)
				d, _ := res.Event.Duration()
				fmt.Printf("Closed %s after %.1fh\n", res.Event.ID, d.Hours())
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&in.RootCause, "root-cause", "", "root cause")
	cmd.Flags().StringVar(&in.RepairNotes, "notes", "", "repair notes")
	_ = cmd.MarkFlagRequired("root-cause")
	return cmd
}

func downtimeListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all downtimes, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), func(ctx context.Context, e engine.Engine, s domain.Session) error {
				items, err := e.ListDowntimes(ctx, s)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				printDowntimes(items)
				return nil
			})
		},
	}
}

func downtimeActiveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "active",
		Short: "List open and in_progress downtimes",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), func(ctx context.Context, e engine.Engine, s domain.Session) error {
				items, err := e.ListActive(ctx, s)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				printDowntimes(items)
				return nil
			})
		},
	}
}

func downtimeExportCmd() *cobra.Command {
	var format, out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the downtime ledger as csv or xlsx",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := export.ParseFormat(format)
			if err != nil {
				return err
			}
			return withSession(cmd.Context(), func(ctx context.Context, e engine.Engine, s domain.Session) error {
				var w io.Writer = os.Stdout
				if out != "" {
					file, err := os.Create(out)
					if err != nil {
						return err
					}
					defer file.Close()
					w = file
				}
				if err := e.ExportDowntimes(ctx, s, w, f); err != nil {
					return err
				}
				if out != "" {
					fmt.Fprintln(os.Stderr, "Wrote", out)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&format, "format", "csv", "csv or xlsx")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default stdout)")
	return cmd
}

func dashboardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Show fleet and downtime metrics",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), func(ctx context.Context, e engine.Engine, s domain.Session) error {
				m, err := e.Dashboard(ctx, s)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(m)
				}
				tw := newTable("Metric", "Value")
				tw.AppendRow(table.Row{"Equipment", m.TotalEquipment})
				tw.AppendRow(table.Row{"Currently down", m.CurrentlyDown})
				tw.AppendRow(table.Row{"Active downtimes", m.ActiveDowntimes})
				tw.AppendRow(table.Row{"Total downtimes", m.TotalDowntimes})
				tw.AppendRow(table.Row{"Downtimes this week", m.WeekDowntimes})
				tw.AppendRow(table.Row{"MTTR (h)", fmt.Sprintf("%.1f", m.MTTRHours)})
				tw.AppendRow(table.Row{"MTTR this week (h)", fmt.Sprintf("%.1f", m.WeekMTTRHours)})
				tw.Render()
				causes := newTable("Cause", "Count")
				for _, c := range m.DowntimeByCause {
					causes.AppendRow(table.Row{c.Label, c.Count})
				}
				causes.Render()
				trend := newTable("Month", "Downtimes")
				for _, mc := range m.MonthlyTrends {
					trend.AppendRow(table.Row{mc.Month, mc.Count})
				}
				trend.Render()
				return nil
			})
		},
	}
}

func driftCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "drift",
		Short: "List equipment whose status disagrees with the ledger",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), func(ctx context.Context, e engine.Engine, s domain.Session) error {
				items, err := e.Drift(ctx, s)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				if len(items) == 0 {
					fmt.Println("No drift")
					return nil
				}
				tw := newTable("ID", "Equipment", "Status", "Active", "Reason")
				for _, d := range items {
					tw.AppendRow(table.Row{d.Equipment.ID, d.Equipment.Name, d.Equipment.Status, strings.Join(d.ActiveDowntime, ", "), d.Reason})
				}
				tw.Render()
				return nil
			})
		},
	}
}

func logCmd() *cobra.Command {
	lg := &cobra.Command{Use: "log", Short: "Inspect the audit log"}
	lg.AddCommand(logTailCmd())
	return lg
}

func logTailCmd() *cobra.Command {
	var n int
	var f repo.EventFilter
	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Tail events",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), func(ctx context.Context, e engine.Engine, s domain.Session) error {
				items, err := e.AuditLog(ctx, s, n, f)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := newTable("ID", "TS", "Type", "Entity", "Actor", "Payload")
				for _, ev := range items {
					entity := ev.EntityKind
					if ev.EntityID != "" {
						entity += "/" + ev.EntityID
					}
					tw.AppendRow(table.Row{ev.ID, ev.TS, ev.Type, entity, ev.Actor, ev.Payload})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&n, "n", 20, "number of events")
	cmd.Flags().StringVar(&f.Type, "type", "", "event type filter")
	cmd.Flags().StringVar(&f.EntityKind, "entity-kind", "", "entity kind")
	cmd.Flags().StringVar(&f.EntityID, "entity-id", "", "entity id")
	return cmd
}

func configCmd() *cobra.Command {
	cfg := &cobra.Command{
		Use:   "config",
		Short: "Inspect workspace config",
		Long:  "minetrack.yml holds the site name, log settings, server defaults, ledger options and the equipment seed.",
	}
	cfg.AddCommand(configInitCmd())
	cfg.AddCommand(configShowCmd())
	cfg.AddCommand(configValidateCmd())
	return cfg
}

func configInitCmd() *cobra.Command {
	var site string
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default minetrack.yml",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.Path(viper.GetString("workspace"))
			if _, err := os.Stat(path); err == nil && !viper.GetBool("force") {
				return fmt.Errorf("%s exists; use --force to overwrite", path)
			}
			if err := os.WriteFile(path, []byte(config.GenerateDefault(site)), 0o644); err != nil {
				return err
			}
			fmt.Println("Wrote", path)
			return nil
		},
	}
	cmd.Flags().StringVar(&site, "site", "Mine", "site name")
	cmd.Flags().Bool("force", false, "overwrite an existing file")
	_ = viper.BindPFlag("force", cmd.Flags().Lookup("force"))
	return cmd
}

func configShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show loaded config",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadOptional(viper.GetString("workspace"))
			if err != nil {
				return err
			}
			return printJSON(cfg)
		},
	}
}

func configValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate minetrack.yml",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := config.LoadOptional(viper.GetString("workspace"))
			if viper.GetBool("json") {
				return printJSON(map[string]any{"ok": err == nil, "error": fmt.Sprint(err)})
			}
			if err != nil {
				return err
			}
			fmt.Println("config OK")
			return nil
		},
	}
}

func serveCmd() *cobra.Command {
	var addr, basePath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			secret := viper.GetString("jwt-secret")
			if secret == "" {
				return fmt.Errorf("MINETRACK_JWT_SECRET is required for bearer auth")
			}
			ws, err := openWorkspace(cmd.Context())
			if err != nil {
				return err
			}
			defer ws.Close()
			if addr == "" {
				addr = ws.Config.Server.Addr
			}
			if basePath == "" {
				basePath = ws.Config.Server.BasePath
			}
			handler, err := server.New(server.Config{
				Engine:   ws.Engine,
				BasePath: basePath,
				Auth:     server.AuthConfig{JWTSecret: secret, TokenTTL: ws.Config.Server.TokenTTL},
				Log:      ws.Log,
			})
			if err != nil {
				return err
			}
			srv := &http.Server{Addr: addr, Handler: handler, ReadHeaderTimeout: 10 * time.Second}
			go func() {
				<-cmd.Context().Done()
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				srv.Shutdown(ctx)
			}()
			ws.Log.Info("serving minetrack api", zap.String("addr", addr), zap.String("base_path", basePath), zap.String("site", ws.Config.Site.Name))
			fmt.Printf("Serving Minetrack API on http://%s%s (OpenAPI at %s/openapi.json, Swagger UI at /docs)\n", addr, basePath, basePath)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			ws.Log.Info("server stopped")
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from minetrack.yml)")
	cmd.Flags().StringVar(&basePath, "base-path", "", "API base path (default from minetrack.yml)")
	return cmd
}

// --- helpers ---

func openWorkspace(ctx context.Context) (*app.Workspace, error) {
	return app.Open(ctx, viper.GetString("workspace"), app.Options{
		LogLevel:  viper.GetString("log-level"),
		LogFormat: viper.GetString("log-format"),
	})
}

func withEngine(ctx context.Context, fn func(context.Context, engine.Engine) error) error {
	ws, err := openWorkspace(ctx)
	if err != nil {
		return err
	}
	defer ws.Close()
	return fn(ctx, ws.Engine)
}

// withSession runs fn as the logged-in user.
func withSession(ctx context.Context, fn func(context.Context, engine.Engine, domain.Session) error) error {
	return withEngine(ctx, func(ctx context.Context, e engine.Engine) error {
		s, err := e.CurrentSession(ctx)
		if errors.Is(err, engine.ErrNotAuthenticated) {
			return fmt.Errorf("%w; run 'mt login' first", err)
		}
		if err != nil {
			return err
		}
		return fn(ctx, e, s)
	})
}

func newTable(headers ...any) table.Writer {
	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.AppendHeader(table.Row(headers))
	return tw
}

func printDowntimes(items []domain.DowntimeEvent) {
	tw := newTable("ID", "Equipment", "Cause", "Status", "Reported By", "Start", "Duration (h)")
	for _, d := range items {
		duration := ""
		if dur, ok := d.Duration(); ok {
			duration = fmt.Sprintf("%.1f", dur.Hours())
		}
		tw.AppendRow(table.Row{d.ID, d.EquipmentName, d.Cause.Label(), d.Status, d.ReportedBy, d.StartTime.Format(time.RFC3339), duration})
	}
	tw.Render()
}

func printWarnings(warnings []string) {
	for _, w := range warnings {
		fmt.Fprintln(os.Stderr, "warning:", w)
	}
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func roleList() string {
	names := make([]string, 0, len(domain.Roles))
	for _, r := range domain.Roles {
		names = append(names, string(r))
	}
	return strings.Join(names, ", ")
}

func causeList() string {
	names := make([]string, 0, len(domain.Causes))
	for _, c := range domain.Causes {
		names = append(names, string(c))
	}
	return strings.Join(names, ", ")
}
