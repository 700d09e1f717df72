package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"sort"
	"time"

	"madpriser_api/config"
	"madpriser_api/internal/rema"
	"madpriser_api/internal/rema/app/web"
	"madpriser_api/internal/rema/app/web/handlers"
	"madpriser_api/internal/rema/client"
	"madpriser_api/internal/rema/delta"
	"madpriser_api/internal/rema/discovery"
	"madpriser_api/internal/rema/maintenance"
	"madpriser_api/internal/rema/seed"
	"madpriser_api/internal/rema/storage"
	"madpriser_api/internal/rema/sync"
	"madpriser_api/internal/rema/transform"
	"madpriser_api/internal/stores"
	remamigrations "madpriser_api/migrations/stores/rema"
	"madpriser_api/pkg/dbconnect"
	"madpriser_api/pkg/dbconnect/migration"
	"madpriser_api/pkg/logger"
)

// RemaServer wires the whole sync pipeline together and serves it.
type RemaServer struct {
	dbconnect.Database
	cfg *config.AppConfig
	log logger.Logger
}

func NewRemaServer(connector dbconnect.Database, cfg *config.AppConfig, log logger.Logger) *RemaServer {
	return &RemaServer{Database: connector, cfg: cfg, log: log.WithPrefix("[RemaServer]")}
}

// Run applies migrations, seeds the department table and serves until the
// listener fails or the context is cancelled.
func (s *RemaServer) Run(ctx context.Context) error {
	db, err := s.Connect()
	if err != nil {
		return fmt.Errorf("connecting to postgres: %w", err)
	}
	defer db.Close()

	migrationApply := []migration.MigrationInterface{
		&remamigrations.CreateMigrationsSchema{},
		&remamigrations.CreateRemaSchema{},
		&remamigrations.CreateRemaProductsTable{},
		&remamigrations.CreateRemaPriceHistoryTable{},
		&remamigrations.CreateRemaDepartmentsTable{},
	}
	for _, m := range migrationApply {
		if err := m.UpMigration(db); err != nil {
			return fmt.Errorf("applying migration: %w", err)
		}
	}
	s.log.Log("migrations applied")

	remaCfg := s.cfg.Rema
	departmentRepo := storage.NewDepartmentRepository(db)
	if err := s.seedDepartments(ctx, departmentRepo, remaCfg.Departments); err != nil {
		return fmt.Errorf("seeding departments: %w", err)
	}

	if remaCfg.DepartmentsCSV != "" {
		if err := s.importDepartmentsCSV(ctx, departmentRepo, remaCfg.DepartmentsCSV); err != nil {
			return fmt.Errorf("importing %s: %w", remaCfg.DepartmentsCSV, err)
		}
	}

	lookup, err := departmentLookup(ctx, departmentRepo)
	if err != nil {
		return fmt.Errorf("loading department table: %w", err)
	}

	apiClient := client.NewClient(remaCfg.BaseURL, remaCfg.Store, remaCfg.RequestDelay, s.log)
	transformer := transform.NewTransformer(remaCfg)
	transformer.ReplaceDepartments(lookup)

	productRepo := storage.NewProductRepository(db)
	historyRepo := storage.NewPriceHistoryRepository(db)
	engine := sync.NewEngine(productRepo, historyRepo, remaCfg.Store)
	runner := sync.NewRunner(apiClient, transformer, engine, remaCfg.BatchBudget, remaCfg.Store, s.log)

	departmentIDs := sortedDepartmentIDs(lookup)
	discoverer := discovery.NewChain(s.log,
		discovery.NewPagedDepartment(apiClient, departmentIDs, 100, s.log),
		discovery.NewIDRangeScan(apiClient, remaCfg.ScanRanges, remaCfg.ScanProductCeiling, s.log),
		discovery.NewKnownIDs(apiClient, remaCfg.KnownProductIDs, s.log),
	)

	deltaSelector := delta.NewSelector(apiClient, remaCfg.DeltaStrategy, remaCfg.KnownProductIDs, s.log,
		delta.NewChangeFeed(apiClient, transformer, engine, time.Now().Add(-24*time.Hour), s.log),
		delta.NewConditionalRefresh(productRepo, apiClient, transformer, engine, remaCfg.Source, 100, s.log),
		delta.NewTieredRefresh(productRepo, apiClient, transformer, engine, remaCfg.Source, 100,
			remaCfg.PriorityCategories, remaCfg.StableRefreshEvery, s.log),
	)

	registry, err := stores.NewRegistry(rema.NewPipeline(remaCfg.Source, runner, deltaSelector))
	if err != nil {
		return fmt.Errorf("building scraper registry: %w", err)
	}

	gate := maintenance.NewGate(remaCfg.MaintenanceSampleRate)
	repair := maintenance.NewSaleRepair(productRepo, apiClient, transformer, engine, remaCfg.Source, 50, s.log)
	retention := maintenance.NewRetentionSweep(historyRepo, remaCfg.HistoryRetention, s.log)
	sweep := maintenance.NewDiscontinuedSweep(apiClient, productRepo, departmentIDs,
		remaCfg.Source, 100, remaCfg.BatchBudget, s.log)
	coordinator := maintenance.NewCoordinator(gate, sweep, repair, retention, s.log)

	handler := web.SetupRoutes(web.Routes{
		Batch:        handlers.NewBatchHandler(registry, coordinator, s.log),
		Delta:        handlers.NewDeltaHandler(registry, s.log),
		Discovery:    handlers.NewDiscoveryHandler(discoverer, transformer, engine, s.log),
		Discontinued: handlers.NewDiscontinuedHandler(sweep, s.log),
		Departments:  handlers.NewDepartmentsHandler(departmentRepo, s.log),
		Health:       handlers.NewHealthHandler(s, s.log),
	})

	server := &http.Server{
		Addr:    s.cfg.HTTP.Addr,
		Handler: handler,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			s.log.Errorf("shutting down: %v", err)
		}
	}()

	s.log.Log("listening on %s", s.cfg.HTTP.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// seedDepartments loads the configured code-to-category table into postgres
// so the departments endpoint reflects what the transformer actually uses.
func (s *RemaServer) seedDepartments(ctx context.Context, repo *storage.DepartmentRepository, departments map[int]string) error {
	for id, category := range departments {
		d := storage.Department{ID: id, Category: category}
		if err := repo.Upsert(ctx, d); err != nil {
			return err
		}
	}
	return nil
}

func (s *RemaServer) importDepartmentsCSV(ctx context.Context, repo *storage.DepartmentRepository, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	seeder := seed.NewSeeder(repo, s.log)
	_, err = seeder.ImportDepartments(ctx, file)
	return err
}

// departmentLookup builds the department-to-category table from the persisted
// rows, which hold both the configured defaults and any CSV import.
func departmentLookup(ctx context.Context, repo *storage.DepartmentRepository) (map[int]string, error) {
	departments, err := repo.List(ctx)
	if err != nil {
		return nil, err
	}
	lookup := make(map[int]string, len(departments))
	for _, d := range departments {
		lookup[d.ID] = d.Category
	}
	return lookup, nil
}

func sortedDepartmentIDs(departments map[int]string) []int {
	ids := make([]int, 0, len(departments))
	for id := range departments {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
