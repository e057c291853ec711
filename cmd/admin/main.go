// Command admin runs maintenance operations against the Fellowship database.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"fellowship/internal/bootstrap"
	"fellowship/internal/config"
	"fellowship/internal/featureflags"
	"fellowship/internal/models"
	"fellowship/internal/observability"
	"fellowship/internal/repository"
	"fellowship/internal/service"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// cliActor is the actor id recorded in admin audit logs for CLI actions.
const cliActor uint = 0

const usage = `Usage:
  admin promote <user_id>             Promote user to admin
  admin demote <user_id>              Demote user from admin
  admin list-admins                   List all admins
  admin delete <kind> <id>            Hard-delete an entity, applying delete policies
  admin policies                      Print the delete policy table as YAML
  admin recount-post <post_id>        Recompute a post's counters
  admin recount-prayer <prayer_id>    Recompute a prayer's commit count
  admin recompute-xp [user_id]        Rebuild XP totals for one user or everyone
  admin flags                         List stored feature flags
  admin flag-set <key> <value>        Store a feature flag (on, off or N%)
  admin flag-delete <key>             Remove a stored feature flag`

func main() {
	if len(os.Args) < 2 {
		fmt.Println(usage)
		os.Exit(1)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	cfg.DevSeed = false

	db, _, err := bootstrap.InitRuntime(cfg, bootstrap.Options{})
	if err != nil {
		log.Fatalf("Failed to initialize runtime: %v", err)
	}
	engine := bootstrap.NewEngine(cfg, db)

	admin := service.NewAdminService(
		repository.NewUserRepository(db, engine),
		repository.NewPostRepository(db, engine),
		repository.NewPrayerRepository(db, engine),
		repository.NewXpRepository(db, engine),
		engine,
		featureflags.NewStore(db),
	)

	ctx := observability.WithCorrelationID(context.Background(), "admin-cli-"+uuid.NewString())
	if err := run(ctx, admin, os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, admin *service.AdminService, args []string) error {
	cmd, rest := args[0], args[1:]
	need := func(n int) error {
		if len(rest) < n {
			return fmt.Errorf("%s: missing arguments\n%s", cmd, usage)
		}
		return nil
	}

	switch cmd {
	case "promote", "demote":
		if err := need(1); err != nil {
			return err
		}
		id, err := parseID(rest[0])
		if err != nil {
			return err
		}
		user, err := admin.SetAdmin(ctx, cliActor, id, cmd == "promote")
		if err != nil {
			return err
		}
		fmt.Printf("%s (ID: %d) admin=%t\n", user.Username, user.ID, user.IsAdmin)

	case "list-admins":
		admins, err := admin.ListAdmins(ctx)
		if err != nil {
			return err
		}
		if len(admins) == 0 {
			fmt.Println("No admins found")
			return nil
		}
		for _, a := range admins {
			fmt.Printf("ID: %d | Username: %s | Email: %s\n", a.ID, a.Username, a.Email)
		}

	case "delete":
		if err := need(2); err != nil {
			return err
		}
		id, err := parseID(rest[1])
		if err != nil {
			return err
		}
		kind := models.EntityKind(strings.ToLower(rest[0]))
		if err := admin.DeleteOwner(ctx, cliActor, kind, id); err != nil {
			return err
		}
		fmt.Printf("Deleted %s %d\n", kind, id)

	case "policies":
		out, err := yaml.Marshal(admin.Policies())
		if err != nil {
			return err
		}
		fmt.Print(string(out))

	case "recount-post":
		if err := need(1); err != nil {
			return err
		}
		id, err := parseID(rest[0])
		if err != nil {
			return err
		}
		post, err := admin.RecountPost(ctx, cliActor, id)
		if err != nil {
			return err
		}
		fmt.Printf("Post %d: comments=%d reactions=%d\n", post.ID, post.CommentCount, post.ReactionCount)

	case "recount-prayer":
		if err := need(1); err != nil {
			return err
		}
		id, err := parseID(rest[0])
		if err != nil {
			return err
		}
		prayer, err := admin.RecountPrayer(ctx, cliActor, id)
		if err != nil {
			return err
		}
		fmt.Printf("Prayer %d: commits=%d\n", prayer.ID, prayer.CommitCount)

	case "recompute-xp":
		if len(rest) == 0 {
			n, err := admin.RecomputeAllXp(ctx, cliActor)
			if err != nil {
				return err
			}
			fmt.Printf("Recomputed XP totals for %d users\n", n)
			return nil
		}
		id, err := parseID(rest[0])
		if err != nil {
			return err
		}
		totals, err := admin.RecomputeXp(ctx, cliActor, id)
		if err != nil {
			return err
		}
		out, err := yaml.Marshal(totals)
		if err != nil {
			return err
		}
		fmt.Print(string(out))

	case "flags":
		flags, err := admin.ListFlags(ctx)
		if err != nil {
			return err
		}
		out, err := yaml.Marshal(flags)
		if err != nil {
			return err
		}
		fmt.Print(string(out))

	case "flag-set":
		if err := need(2); err != nil {
			return err
		}
		if err := admin.SetFlag(ctx, cliActor, rest[0], rest[1]); err != nil {
			return err
		}
		fmt.Printf("%s=%s\n", rest[0], rest[1])

	case "flag-delete":
		if err := need(1); err != nil {
			return err
		}
		if err := admin.DeleteFlag(ctx, cliActor, rest[0]); err != nil {
			return err
		}
		fmt.Printf("Deleted flag %s\n", rest[0])

	default:
		return fmt.Errorf("unknown command %q\n%s", cmd, usage)
	}
	return nil
}

func parseID(raw string) (uint, error) {
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return uint(id), nil
}
