package main

import (
	"log"

	"github.com/aulaflow/streaks-backend/internal/domain"
	infra "github.com/aulaflow/streaks-backend/internal/infrastructure"
	"github.com/aulaflow/streaks-backend/internal/infrastructure/driver"
	"github.com/aulaflow/streaks-backend/internal/infrastructure/logging"
	"github.com/aulaflow/streaks-backend/internal/infrastructure/repository"
	"github.com/aulaflow/streaks-backend/internal/infrastructure/uuid"
	"github.com/aulaflow/streaks-backend/internal/interfaces/http"
	"github.com/aulaflow/streaks-backend/internal/usecase"
	"go.uber.org/zap"
)

func main() {
	log.SetFlags(log.Lshortfile | log.Ldate | log.Ltime)
	option, err := infra.InitConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger, err := logging.NewLogger(&logging.Config{
		FilePath: option.Logging.FilePath,
		Level:    option.Logging.Level,
		AppID:    option.AppID,
		Env:      option.Env,
	})
	if err != nil {
		log.Fatalf("Failed to create logger: %s\n", err)
	}
	logger = logger.With(
		zap.String("service.id", option.AppID),
	)
	defer logger.Sync()

	dbConn, err := driver.GetDBConnection(&driver.DBConfig{
		User:     option.Database.User,
		Password: option.Database.Password,
		MaxConn:  option.Database.MaxConn,
		Protocol: option.Database.Protocol,
		Driver:   option.Database.Driver,
		Host:     option.Database.Host,
		Port:     option.Database.Port,
		Query:    option.Database.Query,
		Schema:   option.Database.Schema,
	})
	if err != nil {
		log.Fatalf("Failed to create DB connection: %s\n", err)
	}
	logger.Debug("Create db connection instance", zap.String("db.driver", option.Database.Driver),
		zap.String("db.schema", option.Database.Schema),
		zap.String("db.host", option.Database.Host),
	)

	rdb := driver.NewRedisClient(option.KVStore.Host, option.KVStore.Port, option.KVStore.Password)

	UUIDGenerator := uuid.NewNanoIDGenerator(option.Streak.IDLength)
	StreakConfig := domain.DefaultStreakConfig()
	if option.Streak.WeeklyGoal > 0 {
		StreakConfig.WeeklyGoal = option.Streak.WeeklyGoal
	}
	StreakStore := repository.NewStore(dbConn)
	StreakUseCase := usecase.NewStreakUseCase(StreakStore, StreakConfig, UUIDGenerator)

	http.Serve(dbConn, rdb, option, StreakUseCase, logger)
}
