package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"bizdesk/internal/app"
	"bizdesk/internal/company"
	"bizdesk/internal/config"
	"bizdesk/internal/server"
	"bizdesk/internal/session"
	"bizdesk/internal/validation"
	"bizdesk/internal/wizard"
	bizdesksdk "bizdesk/sdk/go"
)

var rootCmd = &cobra.Command{
	Use:   "bizdesk",
	Short: "Bizdesk CLI",
	Long: `Bizdesk runs a small business dashboard backend and its client tooling.
Core concepts:
- Workspace: your .bizdesk directory holding the database and the saved session token.
- Accounts: register, verify the emailed 6-digit code, then log in; tokens are bearer JWTs.
- Session: the CLI restores your session from the saved token and verifies it against the server.
- Onboarding: a multi-step company wizard (business type, details, representative, public page, review).
- Routes: a fixed navigation table; protected paths need an authenticated session.
- Event log: diary of account and company changes, view with 'bizdesk log tail'.`,
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	if err := rootCmd.Execute(); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("BIZDESK")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringP("workspace", "w", ".", "workspace directory")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	rootCmd.PersistentFlags().String("server-url", "http://127.0.0.1:8080", "API server base URL")
	_ = viper.BindPFlag("workspace", rootCmd.PersistentFlags().Lookup("workspace"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	_ = viper.BindPFlag("server-url", rootCmd.PersistentFlags().Lookup("server-url"))
}

func registerCommands() {
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(configCmd())
	rootCmd.AddCommand(registerCmd())
	rootCmd.AddCommand(verifyOTPCmd())
	rootCmd.AddCommand(resendOTPCmd())
	rootCmd.AddCommand(loginCmd())
	rootCmd.AddCommand(logoutCmd())
	rootCmd.AddCommand(resetPasswordCmd())
	rootCmd.AddCommand(profileCmd())
	rootCmd.AddCommand(onboardCmd())
	rootCmd.AddCommand(companyCmd())
	rootCmd.AddCommand(routesCmd())
	rootCmd.AddCommand(logCmd())
}

func serveCmd() *cobra.Command {
	var addr, basePath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := app.OpenEnv(viper.GetString("workspace"))
			if err != nil {
				return err
			}
			defer env.Close()
			secret := os.Getenv("BIZDESK_JWT_SECRET")
			if secret == "" {
				return fmt.Errorf("BIZDESK_JWT_SECRET is required for bearer auth")
			}
			if addr == "" {
				addr = env.Config.Server.Addr
			}
			if basePath == "" {
				basePath = env.Config.Server.BasePath
			}
			authCfg := server.AuthConfig{
				JWTSecret: secret,
				TokenTTL:  time.Duration(env.Config.Auth.TokenTTLMinutes) * time.Minute,
				OTPTTL:    time.Duration(env.Config.Auth.OTPTTLMinutes) * time.Minute,
			}
			handler, err := server.New(server.Config{
				Repo:     env.Repo,
				Events:   env.Events,
				BasePath: basePath,
				Auth:     authCfg,
			})
			if err != nil {
				return err
			}
			srv := &http.Server{Addr: addr, Handler: handler}
			go func() {
				<-cmd.Context().Done()
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				srv.Shutdown(ctx)
			}()
			fmt.Printf("Serving Bizdesk API on http://%s%s (OpenAPI at %s/openapi.json, Swagger UI at /docs)\n", addr, basePath, basePath)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (defaults to config)")
	cmd.Flags().StringVar(&basePath, "base-path", "", "API base path (defaults to config)")
	return cmd
}

func configCmd() *cobra.Command {
	cfg := &cobra.Command{Use: "config", Short: "Manage workspace config"}
	cfg.AddCommand(configInitCmd())
	cfg.AddCommand(configShowCmd())
	return cfg
}

func configInitCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default bizdesk.yml into the workspace",
		RunE: func(cmd *cobra.Command, args []string) error {
			workspace := viper.GetString("workspace")
			path := config.Path(workspace)
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists; use --force to overwrite", path)
			}
			if err := os.WriteFile(path, []byte(config.GenerateDefault()), 0o644); err != nil {
				return err
			}
			fmt.Println("wrote", path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing config")
	return cmd
}

func configShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the effective config",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadOptional(viper.GetString("workspace"))
			if err != nil {
				return err
			}
			if cfg == nil {
				cfg = config.Default()
			}
			return printJSONOrTable(cfg)
		},
	}
	return cmd
}

func registerCmd() *cobra.Command {
	var name, username, email, password, confirm string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register a new account",
		RunE: func(cmd *cobra.Command, args []string) error {
			if confirm == "" {
				confirm = password
			}
			return withClient(cmd.Context(), func(ctx context.Context, c *app.Client) error {
				res, err := c.Flow.Register(ctx, name, username, email, password, confirm)
				if err != nil {
					return err
				}
				if !res.OK {
					printFieldErrors(res)
					return fmt.Errorf("registration input is invalid")
				}
				fmt.Printf("Registered. Check the server log for the code sent to %s, then run 'bizdesk verify-otp'.\n", email)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "full name")
	cmd.Flags().StringVar(&username, "username", "", "username")
	cmd.Flags().StringVar(&email, "email", "", "email address")
	cmd.Flags().StringVar(&password, "password", "", "password")
	cmd.Flags().StringVar(&confirm, "confirm", "", "password confirmation (defaults to --password)")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func verifyOTPCmd() *cobra.Command {
	var email, code string
	cmd := &cobra.Command{
		Use:   "verify-otp",
		Short: "Verify the 6-digit code",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd.Context(), func(ctx context.Context, c *app.Client) error {
				if err := c.Flow.VerifyOTP(ctx, email, code); err != nil {
					return err
				}
				fmt.Println("Account verified. You can log in now.")
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "email address")
	cmd.Flags().StringVar(&code, "code", "", "6-digit code")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("code")
	return cmd
}

func resendOTPCmd() *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "resend-otp",
		Short: "Re-issue the verification code",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd.Context(), func(ctx context.Context, c *app.Client) error {
				if err := c.Flow.ResendOTP(ctx, email); err != nil {
					return err
				}
				fmt.Println("Verification code sent.")
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "email address")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func loginCmd() *cobra.Command {
	var username, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and save the session token",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd.Context(), func(ctx context.Context, c *app.Client) error {
				if err := c.Flow.Login(ctx, username, password); err != nil {
					return err
				}
				snap := c.Session.Snapshot()
				if snap.Status != session.StatusAuthenticated {
					return fmt.Errorf("login failed: %s", snap.LastError)
				}
				fmt.Printf("Logged in as %s (%s)\n", snap.User.Username, snap.User.Email)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&username, "username", "", "username")
	cmd.Flags().StringVar(&password, "password", "", "password")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func logoutCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Clear the saved session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd.Context(), func(ctx context.Context, c *app.Client) error {
				if err := c.Flow.Logout(); err != nil {
					return err
				}
				fmt.Println("Logged out.")
				return nil
			})
		},
	}
	return cmd
}

func resetPasswordCmd() *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "reset-password",
		Short: "Request a password reset",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd.Context(), func(ctx context.Context, c *app.Client) error {
				if err := c.Flow.RequestPasswordReset(ctx, email); err != nil {
					return err
				}
				fmt.Println("If the account exists, reset instructions were sent.")
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "email address")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func profileCmd() *cobra.Command {
	p := &cobra.Command{Use: "profile", Short: "Manage your profile"}
	p.AddCommand(profileShowCmd())
	p.AddCommand(profileUpdateCmd())
	return p
}

func profileShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the logged-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), func(ctx context.Context, c *app.Client) error {
				return printJSONOrTable(c.Session.Snapshot().User)
			})
		},
	}
	return cmd
}

func profileUpdateCmd() *cobra.Command {
	var name, email, bio, phone string
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Update profile fields",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), func(ctx context.Context, c *app.Client) error {
				update := profileUpdateFromFlags(cmd, name, email, bio, phone)
				u, err := c.Flow.UpdateProfile(ctx, update)
				if err != nil {
					return err
				}
				return printJSONOrTable(u)
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "full name")
	cmd.Flags().StringVar(&email, "email", "", "email address")
	cmd.Flags().StringVar(&bio, "bio", "", "bio")
	cmd.Flags().StringVar(&phone, "phone", "", "phone number")
	return cmd
}

func onboardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "onboard",
		Short: "Run the company onboarding wizard",
		Long:  "Walks the configured onboarding steps. Type '!back' to return to the previous step, '!jump <step>' to revisit a completed step, or leave optional fields empty.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), func(ctx context.Context, c *app.Client) error {
				return runOnboarding(ctx, c, bufio.NewScanner(os.Stdin))
			})
		},
	}
	return cmd
}

func companyCmd() *cobra.Command {
	co := &cobra.Command{Use: "company", Short: "Manage companies"}
	co.AddCommand(companyListCmd())
	return co
}

func companyListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List your companies",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), func(ctx context.Context, c *app.Client) error {
				items, err := c.SDK.Companies(ctx)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Name", "Type", "City", "Created"})
				for _, it := range items {
					tw.AppendRow(table.Row{it.ID, it.Name, it.BusinessType, it.Address.City, it.CreatedAt})
				}
				tw.Render()
				return nil
			})
		},
	}
	return cmd
}

func routesCmd() *cobra.Command {
	r := &cobra.Command{Use: "routes", Short: "Inspect the navigation table"}
	r.AddCommand(routesListCmd())
	r.AddCommand(routesResolveCmd())
	return r
}

func routesListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List routes",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd.Context(), func(ctx context.Context, c *app.Client) error {
				if viper.GetBool("json") {
					return printJSON(c.Guard.Routes())
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"Path", "Protected"})
				for _, rt := range c.Guard.Routes() {
					tw.AppendRow(table.Row{rt.Path, rt.Protected})
				}
				tw.Render()
				return nil
			})
		},
	}
	return cmd
}

func routesResolveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resolve <path>",
		Short: "Show how a path renders for the current session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd.Context(), func(ctx context.Context, c *app.Client) error {
				if err := c.Flow.Bootstrap(ctx); err != nil {
					return err
				}
				decision := c.Guard.ResolvePath(args[0], c.Session.Snapshot())
				return printJSONOrTable(decision)
			})
		},
	}
	return cmd
}

func logCmd() *cobra.Command {
	l := &cobra.Command{Use: "log", Short: "Inspect the event log"}
	l.AddCommand(logTailCmd())
	return l
}

func logTailCmd() *cobra.Command {
	var n int
	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Tail events",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := app.OpenEnv(viper.GetString("workspace"))
			if err != nil {
				return err
			}
			defer env.Close()
			events, err := env.Repo.ListEvents(cmd.Context(), n)
			if err != nil {
				return err
			}
			if viper.GetBool("json") {
				return printJSON(events)
			}
			tw := table.NewWriter()
			tw.SetOutputMirror(os.Stdout)
			tw.AppendHeader(table.Row{"TS", "Type", "Entity", "Actor"})
			for _, e := range events {
				tw.AppendRow(table.Row{e.TS, e.Type, e.EntityKind + "/" + e.EntityID, e.ActorID})
			}
			tw.Render()
			return nil
		},
	}
	cmd.Flags().IntVar(&n, "n", 20, "number of events")
	return cmd
}

// --- onboarding loop ---

func runOnboarding(ctx context.Context, c *app.Client, scanner *bufio.Scanner) error {
	steps := validation.OnboardingSteps(c.Config)
	eng, err := wizard.New(c.Rules, steps)
	if err != nil {
		return err
	}
	for {
		stepID := eng.Step()
		step := stepConfig(c.Config, stepID)
		fmt.Printf("\n== %s (%d/%d) ==\n", stepTitle(step, stepID), eng.StepIndex()+1, len(eng.Steps()))
		if eng.IsTerminal() {
			printSummary(eng.Fields())
			fmt.Print("Submit? [y/n/back]: ")
			answer := readLine(scanner)
			switch strings.ToLower(answer) {
			case "y", "yes":
				sub := company.NewSubmission(c.SDK, c.Rules)
				created, err := sub.Submit(ctx, eng.Fields())
				if err != nil {
					fmt.Println("submit failed:", err)
					continue
				}
				fmt.Printf("Company created: %s (%s)\n", created.Name, created.ID)
				return nil
			case "back":
				eng.GoPrevious()
				continue
			default:
				return fmt.Errorf("onboarding aborted")
			}
		}
		if jumped := promptStep(eng, step, scanner); jumped {
			continue
		}
		res := eng.GoNext()
		if !res.OK {
			printFieldErrors(res)
		}
	}
}

func promptStep(eng *wizard.Engine, step config.StepConfig, scanner *bufio.Scanner) bool {
	for _, f := range step.Fields {
		label := f.Name
		if f.Optional {
			label += " (optional)"
		}
		if len(f.Choices) > 0 {
			label += " [" + strings.Join(f.Choices, ", ") + "]"
		}
		fmt.Printf("%s [%s]: ", label, eng.Field(f.Name))
		line := readLine(scanner)
		switch {
		case line == "!back":
			eng.GoPrevious()
			return true
		case strings.HasPrefix(line, "!jump "):
			target := strings.TrimSpace(strings.TrimPrefix(line, "!jump "))
			if err := eng.JumpTo(target); err != nil {
				fmt.Println(err)
			}
			return true
		case line != "":
			eng.UpdateField(f.Name, line)
		}
	}
	return false
}

func printSummary(fields map[string]string) {
	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.AppendHeader(table.Row{"Field", "Value"})
	req := company.BuildRequest(fields)
	b, _ := json.Marshal(req)
	var flat map[string]any
	_ = json.Unmarshal(b, &flat)
	for k, v := range flat {
		bb, _ := json.Marshal(v)
		tw.AppendRow(table.Row{k, string(bb)})
	}
	tw.Render()
}

func printFieldErrors(res validation.Result) {
	for _, fe := range res.Errors {
		fmt.Printf("  %s: %s\n", fe.Field, fe.Message)
	}
}

// --- helpers ---

func withClient(ctx context.Context, fn func(context.Context, *app.Client) error) error {
	c, err := app.NewClient(viper.GetString("workspace"), viper.GetString("server-url"))
	if err != nil {
		return err
	}
	return fn(ctx, c)
}

// withSession restores and verifies the saved session before running fn.
func withSession(ctx context.Context, fn func(context.Context, *app.Client) error) error {
	return withClient(ctx, func(ctx context.Context, c *app.Client) error {
		if err := c.Flow.Bootstrap(ctx); err != nil {
			return err
		}
		if !c.Session.Snapshot().Authenticated() {
			return fmt.Errorf("not logged in; run 'bizdesk login'")
		}
		return fn(ctx, c)
	})
}

func profileUpdateFromFlags(cmd *cobra.Command, name, email, bio, phone string) (update bizdesksdk.ProfileUpdate) {
	if cmd.Flags().Changed("name") {
		update.Name = &name
	}
	if cmd.Flags().Changed("email") {
		update.Email = &email
	}
	if cmd.Flags().Changed("bio") {
		update.Bio = &bio
	}
	if cmd.Flags().Changed("phone") {
		update.Phone = &phone
	}
	return update
}

func stepConfig(cfg *config.Config, id string) config.StepConfig {
	for _, s := range cfg.Onboarding.Steps {
		if s.ID == id {
			return s
		}
	}
	return config.StepConfig{ID: id}
}

func stepTitle(step config.StepConfig, fallback string) string {
	if step.Title != "" {
		return step.Title
	}
	return fallback
}

func readLine(scanner *bufio.Scanner) string {
	if !scanner.Scan() {
		return ""
	}
	return strings.TrimSpace(scanner.Text())
}

func printJSONOrTable(v any) error {
	if viper.GetBool("json") {
		return printJSON(v)
	}
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
