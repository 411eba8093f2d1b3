// Command createtenant provisions a tenant, its site and the owner
// records in one transaction, applying pending migrations first.
//
// Usage:
//
//	createtenant -name "Acme Corp" -domain acme.example.com [-slug acme] [-owner <uuid>] [-schema tenant_schema.yaml]
//
// Database settings come from the environment (PG_CONN_URL and friends);
// a .env file in the working directory is honored.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	"github.com/sharedschema/tenantkit/pkg/config"
	"github.com/sharedschema/tenantkit/pkg/logger"
	"github.com/sharedschema/tenantkit/pkg/pg"
	"github.com/sharedschema/tenantkit/pkg/tenant"
	"github.com/sharedschema/tenantkit/pkg/validator"
)

type appConfig struct {
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`

	// DefaultTenantSlug names the tenant that unscoped bootstrap work
	// runs under; when set, log records carry its slug.
	DefaultTenantSlug string `env:"DEFAULT_TENANT_SLUG" envDefault:""`
}

func main() {
	var (
		name       = flag.String("name", "", "tenant display name (required)")
		slugFlag   = flag.String("slug", "", "tenant slug (default: slugified name)")
		domain     = flag.String("domain", "", "primary domain for host-based resolution (required)")
		owner      = flag.String("owner", "", "owner user id (default: a freshly generated uuid)")
		schemaPath = flag.String("schema", "", "optional YAML attribute schema file")
	)
	flag.Parse()

	if err := run(*name, *slugFlag, *domain, *owner, *schemaPath); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(name, slugFlag, domain, owner, schemaPath string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var appCfg appConfig
	if err := config.Load(&appCfg); err != nil {
		return err
	}
	var pgCfg pg.Config
	if err := config.Load(&pgCfg); err != nil {
		return err
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(appCfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	log := logger.New(
		logger.WithLevel(level),
		logger.WithFormat(logger.Format(appCfg.LogFormat)),
		logger.WithContextExtractors(tenant.LoggerExtractor()),
	)
	slog.SetDefault(log)

	ownerID := uuid.New()
	if owner != "" {
		parsed, err := uuid.Parse(owner)
		if err != nil {
			return fmt.Errorf("invalid -owner: %w", err)
		}
		ownerID = parsed
	}

	pool, err := pg.Connect(ctx, pgCfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := pg.Migrate(ctx, pool, pgCfg, log); err != nil {
		return err
	}

	opts := []tenant.ServiceOption{tenant.WithServiceLogger(log)}
	storeOpts := []tenant.PGStoreOption{}
	if schemaPath != "" {
		file, err := tenant.LoadSchemaFile(schemaPath)
		if err != nil {
			return err
		}
		extraData, err := tenant.NewSchema(file.ExtraData)
		if err != nil {
			return err
		}
		settings, err := tenant.NewSchema(file.Settings)
		if err != nil {
			return err
		}
		opts = append(opts,
			tenant.WithExtraDataSchema(extraData),
			tenant.WithSettingsSchema(settings))
		storeOpts = append(storeOpts, tenant.WithOwnerPermissions(file.OwnerPermissions))
	}

	store := tenant.NewPGStore(pool, storeOpts...)
	ctx = bootstrapContext(ctx, store, appCfg.DefaultTenantSlug)

	svc := tenant.NewService(store, opts...)
	created, err := svc.CreateTenant(ctx, tenant.CreateTenantInput{
		Name:    name,
		Slug:    slugFlag,
		Domain:  domain,
		OwnerID: ownerID,
	})
	if err != nil {
		if ve := validator.Extract(err); ve != nil {
			for _, fieldErr := range ve {
				fmt.Fprintf(os.Stderr, "  %s: %s\n", fieldErr.Field, fieldErr.Message)
			}
		}
		return err
	}

	fmt.Printf("Successfully created tenant %s\n", created.Name)
	fmt.Printf("  slug:   %s\n", created.Slug)
	fmt.Printf("  domain: %s\n", domain)
	fmt.Printf("  owner:  %s\n", ownerID)
	return nil
}

// bootstrapContext stamps ctx with a lazy handle for the configured default
// tenant, so bootstrap work logs under its slug. The handle is lazy: the
// tenant does not have to exist yet.
func bootstrapContext(ctx context.Context, provider tenant.Provider, slug string) context.Context {
	if slug == "" {
		return ctx
	}
	return tenant.WithHandle(ctx, tenant.NewHandle(provider, slug))
}
