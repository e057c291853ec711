// Command seed fills the database with demo members, posts, prayers and XP.
package main

import (
	"context"
	"flag"
	"log"

	"fellowship/internal/bootstrap"
	"fellowship/internal/config"
	"fellowship/internal/seed"
)

func main() {
	defaults := seed.DefaultOptions()
	opts := seed.Options{}
	flag.IntVar(&opts.Users, "users", defaults.Users, "Number of users to create")
	flag.IntVar(&opts.PostsPerUser, "posts", defaults.PostsPerUser, "Posts per user")
	flag.IntVar(&opts.CommentsPerPost, "comments", defaults.CommentsPerPost, "Comments per post")
	flag.IntVar(&opts.ReactionsPerPost, "reactions", defaults.ReactionsPerPost, "Reactions per post (capped at the user count)")
	flag.IntVar(&opts.PrayersPerUser, "prayers", defaults.PrayersPerUser, "Prayer requests per user")
	flag.IntVar(&opts.CommitsPerPrayer, "commits", defaults.CommitsPerPrayer, "Prayer commits per prayer (capped at the user count)")
	flag.IntVar(&opts.XpEventsPerUser, "xp", defaults.XpEventsPerUser, "XP events per user")
	flag.BoolVar(&opts.Clean, "clean", false, "Delete existing data before seeding")
	flag.BoolVar(&opts.SkipBcrypt, "fast", true, "Hash the shared password at minimum bcrypt cost")
	flag.Int64Var(&opts.RandSeed, "rand-seed", 0, "Seed for reproducible content (0 picks one)")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	cfg.DevSeed = false

	db, _, err := bootstrap.InitRuntime(cfg, bootstrap.Options{ApplySchema: true})
	if err != nil {
		log.Fatalf("Failed to initialize runtime: %v", err)
	}

	report, err := seed.Seed(context.Background(), db, bootstrap.NewEngine(cfg, db), opts)
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Printf("Seeded %d users, %d posts, %d comments, %d reactions, %d prayers, %d commits, %d xp events",
		report.Users, report.Posts, report.Comments, report.Reactions, report.Prayers, report.Commits, report.XpEvents)
	log.Println("All seeded users share the password: password123")
}
