//go:build ignore

package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/hugh/go-crm/internal/account"
	"github.com/hugh/go-crm/internal/activity"
	"github.com/hugh/go-crm/internal/apperr"
	"github.com/hugh/go-crm/internal/auth"
	"github.com/hugh/go-crm/internal/crm"
	"github.com/hugh/go-crm/internal/database"
	"github.com/hugh/go-crm/internal/notify"
	"github.com/hugh/go-crm/internal/storage"
	"github.com/hugh/go-crm/internal/store"
	"github.com/hugh/go-crm/pkg/config"
	"github.com/hugh/go-crm/pkg/crypto"
	"github.com/hugh/go-crm/pkg/util"
	"github.com/joho/godotenv"
)

// Seeds a development database with the super admin and a few clients.
func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := util.NewLogger(cfg.Server.Env)

	db, err := database.Connect(&cfg.Database, logger)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer database.Close(db)

	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}

	ctx := context.Background()
	stores := store.New(db, cfg.App.QueryLimit)
	recorder := activity.NewRecorder(stores.Activities, logger, nil)
	defer recorder.Wait()

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.Expiry(), cfg.JWT.ResetExpiry())
	accounts := account.NewService(account.Deps{
		Users:    stores.Users,
		Invites:  stores.Invites,
		OTPs:     stores.OTPs,
		Tokens:   jwtService,
		Notifier: notify.NewLogNotifier(logger, true),
		Activity: recorder,
		Logger:   logger,
	}, account.Options{AppName: cfg.App.Name})

	email := os.Getenv("ADMIN_EMAIL")
	password := os.Getenv("ADMIN_PASSWORD")
	if email == "" {
		email = "admin@example.com"
	}
	if password == "" {
		password = "Admin123!"
	}

	invite, err := accounts.Setup(ctx, email)
	if err != nil {
		if errors.Is(err, account.ErrAlreadyInitialized) {
			fmt.Printf("Already set up, nothing to seed\n")
			return
		}
		log.Fatalf("failed to start setup: %v", err)
	}

	admin, err := accounts.AcceptInvite(ctx, invite.ID, account.AcceptInput{
		FirstName: "Admin",
		LastName:  "User",
		Password:  password,
	})
	if err != nil {
		log.Fatalf("failed to create admin user: %v", err)
	}

	encryptor, err := crypto.NewEncryptor(cfg.Encryption.Key, cfg.Encryption.RetiredKeys...)
	if err != nil {
		log.Fatalf("failed to create encryptor: %v", err)
	}

	deps := crm.Deps{
		Clients:  stores.Clients,
		Contacts: stores.Contacts,
		Reports:  stores.Reports,
		Users:    stores.Users,
		Sealer:   encryptor,
		Storage:  storage.NewMemory(),
		Activity: recorder,
		Logger:   logger,
	}
	clients := crm.NewClients(deps)
	contacts := crm.NewContacts(deps)

	samples := []struct {
		client  string
		contact string
		title   string
	}{
		{"Acme Corp", "Wile E. Coyote", "Head of Procurement"},
		{"Globex", "Hank Scorpio", "CEO"},
		{"Initech", "Bill Lumbergh", "Division VP"},
	}

	for _, s := range samples {
		c, err := clients.Create(ctx, admin, crm.ClientInput{Name: s.client})
		if err != nil {
			if apperr.KindOf(err) == apperr.Conflict {
				continue
			}
			log.Fatalf("failed to create client %s: %v", s.client, err)
		}
		if _, err := contacts.Create(ctx, admin, crm.ContactInput{ClientID: c.ID, Name: s.contact, Title: s.title}); err != nil {
			log.Fatalf("failed to create contact %s: %v", s.contact, err)
		}
	}

	fmt.Printf("Admin user created successfully!\n")
	fmt.Printf("Email: %s\n", admin.Email)
	fmt.Printf("Clients: %d\n", len(samples))
}
