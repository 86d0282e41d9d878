package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	cl "bizsim/internal/cli"
	"bizsim/internal/config"
	"bizsim/internal/game"
)

func main() {
	_ = godotenv.Load()
	cfg := config.LoadCLIFromEnv()
	apiBase := cfg.APIBaseURL

	root := &cobra.Command{
		Use:          "bizctl",
		Short:        "Business simulation CLI client",
		SilenceUsage: true,
	}

	root.AddCommand(
		newCreateCmd(&apiBase),
		newJoinCmd(&apiBase),
		newLeaveCmd(),
		newStartCmd(&apiBase),
		newProductCmd(&apiBase),
		newMarketingCmd(&apiBase),
		newProductionCmd(&apiBase),
		newEventsCmd(&apiBase),
		newEndRoundCmd(&apiBase),
		newNextRoundCmd(&apiBase),
		newLobbyCmd(&apiBase),
		newStateCmd(&apiBase),
		newNewsCmd(&apiBase),
		newReviewsCmd(&apiBase),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newClient(apiBase *string) *cl.Client {
	return cl.NewClient(strings.TrimRight(strings.TrimSpace(*apiBase), "/"))
}

func cmdContext(cmd *cobra.Command, d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), d)
}

func newCreateCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "create",
		Short: "Create a lobby (host only)",
		RunE: func(cmd *cobra.Command, args []string) error {
			username, err := promptRequired("Host name")
			if err != nil {
				return err
			}
			password, err := promptRequired("Host password")
			if err != nil {
				return err
			}

			ctx, cancel := cmdContext(cmd, 30*time.Second)
			defer cancel()
			code, err := newClient(apiBase).CreateLobby(ctx, username, password)
			if err != nil {
				return err
			}
			if err := cl.SaveSession(cl.Session{LobbyCode: code, Host: username}); err != nil {
				return err
			}
			printSuccess(fmt.Sprintf("Lobby created: %s", code))
			return nil
		},
	}
}

func newJoinCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "join",
		Short: "Join a lobby as a company",
		RunE: func(cmd *cobra.Command, args []string) error {
			code, err := promptRequired("Lobby code")
			if err != nil {
				return err
			}
			company, err := promptRequired("Company name")
			if err != nil {
				return err
			}

			ctx, cancel := cmdContext(cmd, 30*time.Second)
			defer cancel()
			if err := newClient(apiBase).JoinLobby(ctx, code, company); err != nil {
				return err
			}
			if err := cl.SaveSession(cl.Session{LobbyCode: code, CompanyName: company}); err != nil {
				return err
			}
			printSuccess(fmt.Sprintf("Joined lobby %s as %s", code, company))
			return nil
		},
	}
}

func newLeaveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "leave",
		Short: "Forget the saved lobby session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cl.ClearSession(); err != nil {
				return err
			}
			printInfo("Session cleared.")
			return nil
		},
	}
}

func newStartCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the game (host only)",
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := cl.LoadSession()
			if err != nil {
				return err
			}
			ctx, cancel := cmdContext(cmd, 30*time.Second)
			defer cancel()
			if err := newClient(apiBase).StartGame(ctx, session.LobbyCode); err != nil {
				return err
			}
			printSuccess("Game started. Round 1 is live.")
			return nil
		},
	}
}

func newProductCmd(apiBase *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "product",
		Short: "Submit, approve, or refuse product pitches",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "submit",
		Short: "Pitch a product for this round",
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := cl.LoadSession()
			if err != nil {
				return err
			}
			if session.CompanyName == "" {
				return fmt.Errorf("no company in session, join a lobby first")
			}
			name, err := promptRequired("Product name")
			if err != nil {
				return err
			}
			description, err := promptRequired("Description")
			if err != nil {
				return err
			}
			placement, err := promptOptional("Placement (optional)")
			if err != nil {
				return err
			}

			ctx, cancel := cmdContext(cmd, 30*time.Second)
			defer cancel()
			if err := newClient(apiBase).SubmitProduct(ctx, session.LobbyCode, session.CompanyName, name, description, placement); err != nil {
				return err
			}
			printSuccess("Product submitted for host approval.")
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "approve <company>",
		Short: "Approve a company's pending product (host only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := cl.LoadSession()
			if err != nil {
				return err
			}
			ctx, cancel := cmdContext(cmd, 30*time.Second)
			defer cancel()
			if err := newClient(apiBase).ApproveProduct(ctx, session.LobbyCode, args[0]); err != nil {
				return err
			}
			printSuccess(fmt.Sprintf("Approved product for %s.", args[0]))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "refuse <company> [reason]",
		Short: "Refuse a company's pending product (host only)",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := cl.LoadSession()
			if err != nil {
				return err
			}
			reason := ""
			if len(args) > 1 {
				reason = args[1]
			}
			ctx, cancel := cmdContext(cmd, 30*time.Second)
			defer cancel()
			if err := newClient(apiBase).RefuseProduct(ctx, session.LobbyCode, args[0], reason); err != nil {
				return err
			}
			printWarn(fmt.Sprintf("Refused product for %s.", args[0]))
			return nil
		},
	})

	return cmd
}

func newMarketingCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "marketing",
		Short: "Submit this round's marketing strategy",
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := cl.LoadSession()
			if err != nil {
				return err
			}
			if session.CompanyName == "" {
				return fmt.Errorf("no company in session, join a lobby first")
			}
			budget, err := promptFloat("Marketing budget", 0)
			if err != nil {
				return err
			}
			message, err := promptRequired("Campaign message")
			if err != nil {
				return err
			}
			audience, err := promptOptional("Target audience (optional)")
			if err != nil {
				return err
			}
			channels, err := promptOptional("Channels (optional)")
			if err != nil {
				return err
			}

			strategy := map[string]any{
				"budget":  budget,
				"message": message,
			}
			if audience != "" {
				strategy["audience"] = audience
			}
			if channels != "" {
				strategy["channels"] = channels
			}

			ctx, cancel := cmdContext(cmd, 30*time.Second)
			defer cancel()
			if err := newClient(apiBase).SubmitMarketing(ctx, session.LobbyCode, session.CompanyName, strategy); err != nil {
				return err
			}
			printSuccess("Marketing strategy submitted.")
			return nil
		},
	}
}

func newProductionCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "production",
		Short: "Confirm this round's production plan",
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := cl.LoadSession()
			if err != nil {
				return err
			}
			if session.CompanyName == "" {
				return fmt.Errorf("no company in session, join a lobby first")
			}
			name, err := promptRequired("Product name")
			if err != nil {
				return err
			}
			quantity, err := promptInt64("Quantity", 0)
			if err != nil {
				return err
			}
			price, err := promptFloat("Price per unit", 0)
			if err != nil {
				return err
			}
			sustainability, err := promptChoice("Sustainability tier", []string{"none", "low", "high", "very_high"}, "none")
			if err != nil {
				return err
			}
			region, err := promptChoice("Region", []string{"RegionA", "RegionB", "RegionC"}, "RegionA")
			if err != nil {
				return err
			}

			ctx, cancel := cmdContext(cmd, 30*time.Second)
			defer cancel()
			err = newClient(apiBase).ConfirmProduction(ctx, session.LobbyCode, session.CompanyName, game.ProductionPlan{
				ProductName:    name,
				Quantity:       quantity,
				PricePerUnit:   price,
				Sustainability: sustainability,
				Region:         region,
			})
			if err != nil {
				return err
			}
			printSuccess("Production confirmed. Locked in until the round resolves.")
			return nil
		},
	}
}

func newEventsCmd(apiBase *string) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Apply launch events from a JSON file (host only)",
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := cl.LoadSession()
			if err != nil {
				return err
			}
			raw, err := os.ReadFile(file)
			if err != nil {
				return err
			}
			var events []game.LaunchEvent
			if err := json.Unmarshal(raw, &events); err != nil {
				return fmt.Errorf("parse events file: %w", err)
			}

			ctx, cancel := cmdContext(cmd, 30*time.Second)
			defer cancel()
			if err := newClient(apiBase).ApplyLaunchEvents(ctx, session.LobbyCode, events); err != nil {
				return err
			}
			printSuccess(fmt.Sprintf("Applied %d launch events.", len(events)))
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "events.json", "JSON file with launch events")
	return cmd
}

func newEndRoundCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "end-round",
		Short: "Resolve the current round (host only)",
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := cl.LoadSession()
			if err != nil {
				return err
			}
			printInfo("Resolving round, this can take a while...")
			ctx, cancel := cmdContext(cmd, 10*time.Minute)
			defer cancel()
			out, err := newClient(apiBase).EndRound(ctx, session.LobbyCode)
			if err != nil {
				return err
			}
			if ignored, _ := out["ignored"].(bool); ignored {
				printWarn("A resolution was already running; request ignored.")
				return nil
			}
			printSuccess("Round resolved.")
			return nil
		},
	}
}

func newNextRoundCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "next-round",
		Short: "Open the next round (host only)",
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := cl.LoadSession()
			if err != nil {
				return err
			}
			ctx, cancel := cmdContext(cmd, 30*time.Second)
			defer cancel()
			if err := newClient(apiBase).StartNextRound(ctx, session.LobbyCode); err != nil {
				return err
			}
			printSuccess("Next round is live.")
			return nil
		},
	}
}

func newLobbyCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "lobby",
		Short: "Show the full lobby view with leaderboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := cl.LoadSession()
			if err != nil {
				return err
			}
			ctx, cancel := cmdContext(cmd, 30*time.Second)
			defer cancel()
			info, err := newClient(apiBase).LobbyInfo(ctx, session.LobbyCode)
			if err != nil {
				return err
			}
			renderLobbyInfo(session.LobbyCode, info)
			return nil
		},
	}
}

func newStateCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "state",
		Short: "Show the lobby round state",
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := cl.LoadSession()
			if err != nil {
				return err
			}
			ctx, cancel := cmdContext(cmd, 30*time.Second)
			defer cancel()
			state, err := newClient(apiBase).LobbyState(ctx, session.LobbyCode)
			if err != nil {
				return err
			}
			renderLobbyState(session.LobbyCode, state)
			return nil
		},
	}
}

func newNewsCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "news",
		Short: "Show the lobby news feed",
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := cl.LoadSession()
			if err != nil {
				return err
			}
			ctx, cancel := cmdContext(cmd, 30*time.Second)
			defer cancel()
			feed, err := newClient(apiBase).News(ctx, session.LobbyCode)
			if err != nil {
				return err
			}
			renderNews(feed)
			return nil
		},
	}
}

func newReviewsCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "reviews [company]",
		Short: "Show market reactions for a company",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := cl.LoadSession()
			if err != nil {
				return err
			}
			company := session.CompanyName
			if len(args) > 0 {
				company = args[0]
			}
			if company == "" {
				return fmt.Errorf("no company given and none in session")
			}
			ctx, cancel := cmdContext(cmd, 30*time.Second)
			defer cancel()
			reviews, err := newClient(apiBase).Reviews(ctx, session.LobbyCode, company)
			if err != nil {
				return err
			}
			renderReviews(company, reviews)
			return nil
		},
	}
}
