package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cgms.org/internal/auth"
	"cgms.org/internal/config"
	"cgms.org/internal/department"
	"cgms.org/internal/grievance"
	"cgms.org/internal/httpapi"
	"cgms.org/internal/identity"
	"cgms.org/internal/mailer"
	"cgms.org/internal/obs"
	"cgms.org/internal/store/pg"
)

var (
	version = "1.0.0"
	commit  = "dev"
)

// notifier is the union of the two mail contracts; both the SMTP mailer and
// the log-only fallback satisfy it.
type notifier interface {
	identity.Notifier
	department.CredentialsNotifier
}

func main() {
	obs.Init()
	obs.InitBuildInfo(version, commit)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	var (
		identityStore   identity.Store
		grievanceStore  grievance.Store
		departmentStore department.Store
		probe           httpapi.ReadyProbe
	)
	if cfg.Database.DSN != "" {
		store, err := pg.Open(cfg.Database)
		if err != nil {
			log.Fatalf("open database: %v", err)
		}
		defer store.Close()
		identityStore = store
		grievanceStore = store
		departmentStore = store
		probe = httpapi.ReadyProbe{DB: store.DB()}
	} else {
		// Useful for local development; everything is lost on restart.
		obs.LogEntry(map[string]any{
			"level": "warn",
			"msg":   "no database configured, using in-memory stores",
		})
		identityStore = identity.NewInMemory()
		grievanceStore = grievance.NewInMemory()
		departmentStore = department.NewInMemory()
	}

	var mail notifier = mailer.LogOnly{}
	if cfg.SMTP.Host != "" {
		smtp, err := mailer.New(cfg.SMTP)
		if err != nil {
			log.Fatalf("mailer: %v", err)
		}
		verifyCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := smtp.Verify(verifyCtx, time.Duration(cfg.SMTP.DialTimeout)*time.Second); err != nil {
			cancel()
			log.Fatalf("mailer: %v", err)
		}
		cancel()
		mail = smtp
	}

	tokens, err := auth.NewTokenService(cfg.JWT.Secret,
		auth.WithIssuer(cfg.JWT.Issuer),
		auth.WithTTL(time.Duration(cfg.JWT.Expiration)*time.Second),
	)
	if err != nil {
		log.Fatalf("token service: %v", err)
	}

	identitySvc, err := identity.NewService(identityStore, tokens, mail,
		identity.WithCodeTTL(time.Duration(cfg.Verification.CodeTTL)*time.Second),
	)
	if err != nil {
		log.Fatalf("identity service: %v", err)
	}
	departmentSvc, err := department.NewService(departmentStore, identityStore, mail,
		department.WithPasswordLength(cfg.Department.PasswordLength),
	)
	if err != nil {
		log.Fatalf("department service: %v", err)
	}
	grievanceSvc, err := grievance.NewService(grievanceStore, departmentSvc)
	if err != nil {
		log.Fatalf("grievance service: %v", err)
	}

	api := httpapi.New(probe, version, httpapi.Deps{
		Tokens:      tokens,
		Identity:    identitySvc,
		Grievances:  grievanceSvc,
		Departments: departmentSvc,
		Mailer:      mail,
	}, httpapi.WithLimits(cfg.Server.MaxBodyBytes, cfg.Server.RateBurst, cfg.Server.RatePerSecond))

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           api.Handler(),
		ReadTimeout:       time.Duration(cfg.Server.ReadTimeout) * time.Second,
		ReadHeaderTimeout: time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout:      time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:       time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	log.Printf("Starting cgms-api %s on %s", version, srv.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	_ = srv.Shutdown(ctx)
	log.Println("Stopped")
}
