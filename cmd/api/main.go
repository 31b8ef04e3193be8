package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"github.com/school-system/gradebook/internal/analysis"
	"github.com/school-system/gradebook/internal/config"
	"github.com/school-system/gradebook/internal/database"
	"github.com/school-system/gradebook/internal/handlers"
	"github.com/school-system/gradebook/internal/logging"
	"github.com/school-system/gradebook/internal/middleware"
	"github.com/school-system/gradebook/internal/report"
	"github.com/school-system/gradebook/internal/services"
	"github.com/school-system/gradebook/internal/store"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title Gradebook API
// @version 1.0
// @description Student, subject and grade records with weighted final grades and generated performance reports
// @host localhost:8080
// @BasePath /
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	logging.Setup(cfg.Log.Level, cfg.IsDevelopment())

	if len(os.Args) > 1 {
		handleCommand(cfg, os.Args[1], os.Args[2:])
		return
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}

	if cfg.IsDevelopment() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.CORS(cfg.CORS.Origins))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok", "service": "gradebook-api"})
	})
	r.GET("/", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "Gradebook API", "status": "running"})
	})

	if cfg.Monitoring.PrometheusEnabled {
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Services
	records := services.NewRecordService(store.NewGormStore(db), cfg.Records.OrphanPolicy)
	analyzer, closeAnalyzer := newAnalyzer(context.Background(), cfg)
	defer closeAnalyzer()

	// Routes
	v1 := r.Group("/api/v1")
	handlers.NewStudentHandler(records).Register(v1)
	handlers.NewSubjectHandler(records).Register(v1)
	handlers.NewGradeHandler(records).Register(v1)
	handlers.NewAnalysisHandler(records, analyzer).Register(v1)

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Info().Str("addr", addr).Str("orphan_policy", cfg.Records.OrphanPolicy).Msg("Server starting")
	if err := r.Run(addr); err != nil {
		log.Fatal().Err(err).Msg("Failed to start server")
	}
}

// newAnalyzer returns nil when no Gemini key is configured; the analysis endpoint then answers 503.
func newAnalyzer(ctx context.Context, cfg *config.Config) (*analysis.Analyzer, func()) {
	if !cfg.Analysis.Enabled() {
		log.Warn().Msg("GEMINI_API_KEY not set, performance analysis disabled")
		return nil, func() {}
	}
	gen, err := analysis.NewGeminiGenerator(ctx, cfg.Analysis)
	if err != nil {
		log.Error().Err(err).Msg("Failed to initialize Gemini, performance analysis disabled")
		return nil, func() {}
	}
	log.Info().Str("model", cfg.Analysis.Model).Dur("timeout", cfg.Analysis.Timeout).Msg("Performance analysis enabled")
	return analysis.NewAnalyzer(gen, cfg.Analysis.Timeout), func() {
		if err := gen.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close Gemini client")
		}
	}
}

func handleCommand(cfg *config.Config, cmd string, args []string) {
	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	ctx := context.Background()
	records := services.NewRecordService(store.NewGormStore(db), cfg.Records.OrphanPolicy)

	switch cmd {
	case "migrate":
		if err := database.Migrate(db); err != nil {
			log.Fatal().Err(err).Msg("Migration failed")
		}
		log.Info().Msg("Migration completed successfully")

	case "seed":
		if err := seedSampleData(ctx, records); err != nil {
			log.Fatal().Err(err).Msg("Seeding failed")
		}

	case "report":
		rows, err := records.GradeRows(ctx, strings.Join(args, " "))
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to load grades")
		}
		report.GradeTable(os.Stdout, rows)
		report.BandSummary(os.Stdout, rows)

	case "analyze":
		if len(args) == 0 {
			log.Fatal().Msg("Usage: analyze <student-number>")
		}
		analyzeStudent(ctx, cfg, records, args[0])

	default:
		log.Error().Str("command", cmd).Msg("Unknown command (expected migrate, seed, report or analyze)")
	}
}

func analyzeStudent(ctx context.Context, cfg *config.Config, records *services.RecordService, number string) {
	analyzer, closeAnalyzer := newAnalyzer(ctx, cfg)
	defer closeAnalyzer()
	if analyzer == nil {
		os.Exit(1)
	}

	rows, err := records.StudentRows(ctx, number)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load students")
	}
	var row *services.StudentRow
	for i := range rows {
		if rows[i].StudentNumber == number {
			row = &rows[i]
			break
		}
	}
	if row == nil {
		log.Fatal().Str("student_number", number).Msg("Student not found")
	}
	if !row.CanAnalyze {
		log.Fatal().Str("student_number", number).Msg("Student has no grades to analyze")
	}

	grades, err := records.GradesOfStudent(ctx, row.ID)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load grades")
	}
	subjects, err := records.AllSubjects(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load subjects")
	}

	result, err := analyzer.AnalyzeStudentPerformance(ctx, row.Student, grades, subjects)
	if err != nil {
		log.Fatal().Err(err).Msg("Analysis failed")
	}
	report.Analysis(os.Stdout, result)
}
