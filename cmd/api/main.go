package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"eshop.org/internal/auth"
	"eshop.org/internal/catalog"
	"eshop.org/internal/httpapi"
	"eshop.org/internal/obs"
	"eshop.org/internal/orders"
	"eshop.org/internal/stream"
)

var (
	version = "0.3.0"
	commit  = "dev"
)

func main() {
	obs.Init()
	obs.InitBuildInfo(version, commit)

	secret := os.Getenv("ESHOP_AUTH_SECRET")
	tokens, err := auth.NewTokens(secret)
	if err != nil {
		log.Fatalf("auth secret: %v", err)
	}

	// With a DSN the stores run on postgres; without one everything is
	// in-memory, which is enough for local development.
	var db *sql.DB
	if dsn := os.Getenv("ESHOP_PG_DSN"); dsn != "" {
		db, err = sql.Open("pgx", dsn)
		if err != nil {
			log.Fatalf("open db: %v", err)
		}
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(10)
		db.SetConnMaxLifetime(30 * time.Minute)
	}

	var (
		userStore     auth.UserStore
		productStore  catalog.ProductStore
		categoryStore catalog.CategoryStore
		orderStore    orders.Store
	)
	if db != nil {
		userStore = auth.NewPGUserStore(db)
		productStore = catalog.NewPGProductStore(db)
		categoryStore = catalog.NewPGCategoryStore(db)
		orderStore = orders.NewPGStore(db)
	} else {
		log.Printf("ESHOP_PG_DSN not set, using in-memory stores")
		userStore = auth.NewMemoryUserStore()
		productStore = catalog.NewMemoryProductStore()
		categoryStore = catalog.NewMemoryCategoryStore()
		orderStore = orders.NewMemoryStore()
	}

	var accountOpts []auth.ServiceOption
	if os.Getenv("ESHOP_COMPAT_LOGIN_ERRORS") != "" {
		accountOpts = append(accountOpts, auth.WithLegacyLoginErrors(true))
	}
	accounts := auth.NewService(userStore, tokens, accountOpts...)
	cat := catalog.NewService(productStore, categoryStore)
	ord := orders.NewService(orderStore, cat)

	uploadsDir := os.Getenv("ESHOP_UPLOADS_DIR")
	if uploadsDir == "" {
		uploadsDir = "public/uploads"
	}

	api := httpapi.New(httpapi.ReadyProbe{DB: db}, version, httpapi.Deps{
		Accounts:   accounts,
		Tokens:     tokens,
		Catalog:    cat,
		Orders:     ord,
		Stream:     stream.New(),
		APIPrefix:  os.Getenv("ESHOP_API_PREFIX"),
		UploadsDir: uploadsDir,
	})

	addr := os.Getenv("ESHOP_ADDR")
	if addr == "" {
		addr = ":3000"
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Printf("Starting eshop-api %s on %s", version, srv.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(ctx)
	if db != nil {
		_ = db.Close()
	}
	log.Println("Stopped")
}
