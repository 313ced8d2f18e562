package main

import (
	"context"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/fredrikpaulin/DUNGEONS/assets"
	"github.com/fredrikpaulin/DUNGEONS/internal/httpserver"
	"github.com/fredrikpaulin/DUNGEONS/internal/session"
	"github.com/fredrikpaulin/DUNGEONS/internal/story"
	"github.com/fredrikpaulin/DUNGEONS/internal/ws"
)

func main() {
	_ = godotenv.Load()
	if lvl, err := zerolog.ParseLevel(getEnv("LOG_LEVEL", "info")); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	db, err := openDB(getEnv("DB_PATH", "./data/app.db"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	if err := migrate(db); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	adventures := loadAdventures()
	if len(adventures) == 0 {
		log.Fatal().Msg("no adventures loaded")
	}
	for _, s := range adventures {
		if err := RegisterAdventure(context.Background(), db, s.Meta.ID, s.Meta.Title, s.Meta.Version); err != nil {
			log.Warn().Err(err).Str("adventure", s.Meta.ID).Msg("registry upsert failed")
		}
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	sessions := session.NewStore(adventures, session.NewSQLiteRepository(db), rng)
	hub := ws.NewHub()

	srv := httpserver.New(sessions, hub, db)
	port := getEnv("PORT", "5175")
	log.Info().Str("port", port).Int("adventures", len(adventures)).Msg("starting server")
	if err := srv.Start(":" + port); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

// loadAdventures merges the embedded adventures with any YAML files found
// under ADVENTURES_DIR. Files on disk win over embedded content with the
// same id.
func loadAdventures() map[string]*story.Story {
	out := map[string]*story.Story{}

	files, err := assets.AdventureFiles()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to read embedded adventures")
	}
	for name, data := range files {
		s, err := story.LoadBytes(data)
		if err != nil {
			log.Warn().Err(err).Str("file", name).Msg("skipping embedded adventure")
			continue
		}
		if s.Meta.ID == "" {
			s.Meta.ID = strings.TrimSuffix(name, filepath.Ext(name))
		}
		out[s.Meta.ID] = s
	}

	dir := getEnv("ADVENTURES_DIR", "./adventures")
	stories, problems := story.ScanDir(dir)
	for _, err := range problems {
		log.Warn().Err(err).Str("dir", dir).Msg("skipping adventure file")
	}
	for _, s := range stories {
		out[s.Meta.ID] = s
	}

	return out
}

func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
