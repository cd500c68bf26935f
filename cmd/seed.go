package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gorm.io/gorm"

	"procodus.dev/smarthome/internal/store"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load default data into the database",
}

var seedProfileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Create or update the default user profile",
	Long:  "Upsert the default guest profile. Safe to run repeatedly.",
	RunE:  runSeedProfile,
}

var seedRoomsCmd = &cobra.Command{
	Use:   "rooms",
	Short: "Reset rooms to the default topology",
	Long:  "Delete ALL rooms and load the default two-room topology. Destructive.",
	RunE:  runSeedRooms,
}

func init() {
	rootCmd.AddCommand(seedCmd)
	seedCmd.AddCommand(seedProfileCmd)
	seedCmd.AddCommand(seedRoomsCmd)

	// Database flags shared by the seed subcommands
	seedCmd.PersistentFlags().String("db-host", "localhost", "PostgreSQL host")
	seedCmd.PersistentFlags().Int("db-port", 5432, "PostgreSQL port")
	seedCmd.PersistentFlags().String("db-user", "postgres", "PostgreSQL user")
	seedCmd.PersistentFlags().String("db-password", "", "PostgreSQL password")
	seedCmd.PersistentFlags().String("db-name", "smarthome", "PostgreSQL database name")
	seedCmd.PersistentFlags().String("db-sslmode", "disable", "PostgreSQL SSL mode")

	// Bind flags to viper
	_ = viper.BindPFlag("seed.db.host", seedCmd.PersistentFlags().Lookup("db-host"))
	_ = viper.BindPFlag("seed.db.port", seedCmd.PersistentFlags().Lookup("db-port"))
	_ = viper.BindPFlag("seed.db.user", seedCmd.PersistentFlags().Lookup("db-user"))
	_ = viper.BindPFlag("seed.db.password", seedCmd.PersistentFlags().Lookup("db-password"))
	_ = viper.BindPFlag("seed.db.name", seedCmd.PersistentFlags().Lookup("db-name"))
	_ = viper.BindPFlag("seed.db.sslmode", seedCmd.PersistentFlags().Lookup("db-sslmode"))
}

// seedDB opens the database connection configured for the seed commands.
func seedDB() (*gorm.DB, error) {
	logger := GetLogger()

	return store.NewDB(&store.DBConfig{
		Logger:   logger,
		Host:     viper.GetString("seed.db.host"),
		Port:     viper.GetInt("seed.db.port"),
		User:     viper.GetString("seed.db.user"),
		Password: viper.GetString("seed.db.password"),
		DBName:   viper.GetString("seed.db.name"),
		SSLMode:  viper.GetString("seed.db.sslmode"),
	})
}

func runSeedProfile(_ *cobra.Command, _ []string) error {
	logger := GetLogger()

	db, err := seedDB()
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer func() {
		if err := store.CloseDB(db, logger); err != nil {
			logger.Error("failed to close database", "error", err)
		}
	}()

	profiles, err := store.NewProfileStore(logger, db)
	if err != nil {
		return err
	}

	profile, err := profiles.Upsert(context.Background(), store.SeedUserID, store.SeedProfileUpdate())
	if err != nil {
		return fmt.Errorf("failed to seed profile: %w", err)
	}

	logger.Info("seeded default profile", "user_id", profile.UserID, "name", profile.Name)
	return nil
}

func runSeedRooms(_ *cobra.Command, _ []string) error {
	logger := GetLogger()

	db, err := seedDB()
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer func() {
		if err := store.CloseDB(db, logger); err != nil {
			logger.Error("failed to close database", "error", err)
		}
	}()

	rooms, err := store.NewRoomStore(logger, db)
	if err != nil {
		return err
	}

	defaults := store.DefaultRooms()
	if err := rooms.Reset(context.Background(), defaults); err != nil {
		return fmt.Errorf("failed to seed rooms: %w", err)
	}

	deviceCount := 0
	for _, room := range defaults {
		deviceCount += len(room.Devices)
	}

	logger.Info("seeded default rooms", "rooms", len(defaults), "devices", deviceCount)
	return nil
}
