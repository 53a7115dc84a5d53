package main

import (
	"context"
	"log"

	"ecom-backend/cmd"
	"ecom-backend/internal/data/repository"
	"ecom-backend/internal/face"
	"ecom-backend/internal/face/dlib"
	"ecom-backend/internal/usecase"
	"ecom-backend/internal/wire"
	"ecom-backend/migrations"
	"ecom-backend/pkg/database"
	"ecom-backend/pkg/mailer"
	"ecom-backend/pkg/utils"

	"github.com/spf13/afero"
	"go.uber.org/zap"
)

func main() {
	config, err := utils.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := utils.InitLogger(config.App.Name, config.App.LogPath, config.App.Debug)
	if err != nil {
		log.Printf("Failed to init logger: %v. Using standard log.", err)
		logger, _ = zap.NewProduction()
	}
	defer logger.Sync()

	logger.Info("Starting application",
		zap.String("app", config.App.Name),
		zap.String("port", config.App.Port),
		zap.Bool("debug", config.App.Debug),
		zap.Bool("face_enabled", config.Face.Enabled),
	)

	db, err := database.InitDB(config.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	logger.Info("Database connected successfully")

	if config.Database.AutoMigrate {
		if err := database.Migrate(context.Background(), db, migrations.Migrations, config.Database.MigrationsDir, logger); err != nil {
			logger.Fatal("Failed to run migrations", zap.Error(err))
		}
	}

	hasher, err := utils.NewBcryptHasher(config.Security.BcryptCost)
	if err != nil {
		logger.Fatal("Invalid password hashing settings", zap.Error(err))
	}

	tokens, err := utils.NewTokenIssuer(config.JWT)
	if err != nil {
		logger.Fatal("Invalid session token settings", zap.Error(err))
	}

	var extractor usecase.FaceExtractor
	if config.Face.Enabled {
		recognizer, err := dlib.New(config.Face.ModelDir, config.Face.UseCNN)
		if err != nil {
			logger.Fatal("Failed to load face models", zap.Error(err), zap.String("dir", config.Face.ModelDir))
		}
		defer recognizer.Close()

		fs := afero.NewOsFs()
		if err := fs.MkdirAll(config.Face.UploadDir, 0o700); err != nil {
			logger.Fatal("Failed to create upload dir", zap.Error(err), zap.String("dir", config.Face.UploadDir))
		}
		extractor = face.NewExtractor(fs, config.Face.UploadDir, config.Face.MaxUploadMB<<20, recognizer, logger)

		logger.Info("Face models loaded", zap.String("dir", config.Face.ModelDir), zap.Bool("cnn", config.Face.UseCNN))
	}

	mail, err := mailer.New(config.Email, config.App.Debug, logger)
	if err != nil {
		logger.Fatal("Invalid email settings", zap.Error(err))
	}

	app := wire.Wiring(wire.Deps{
		Repo:      repository.NewRepository(db, hasher, logger),
		Hasher:    hasher,
		Tokens:    tokens,
		Extractor: extractor,
		Mailer:    mail,
	}, config, logger)

	if err := cmd.APIServer(app.Router, config.App.Port, config.App.ShutdownTimeout, logger); err != nil {
		logger.Error("Server stopped", zap.Error(err))
	}
}
