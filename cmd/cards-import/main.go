package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jellehierck/Streeplijst3/pkg/config"
	"github.com/jellehierck/Streeplijst3/pkg/database"
	"github.com/jellehierck/Streeplijst3/pkg/model"
)

type cardEntry struct {
	Username string `yaml:"username"`
	CardUID  string `yaml:"card_uid"`
}

// imports the NFC cards listed in a YAML file. Cards already bound to another member are skipped.
func main() {
	cfg := config.New()
	t0 := time.Now()

	data, err := os.ReadFile(cfg.CardsFile)
	if err != nil {
		log.Fatalf("### Can't read cards file: %v", err)
	}

	cards, err := parseCards(data)
	if err != nil {
		log.Fatalf("### Can't parse cards file: %v", err)
	}

	db, closeDB, err := database.New(cfg.PostgresAddr, cfg.PostgresDB, cfg.PostgresUser, cfg.PostgresPassword)
	if err != nil {
		log.Fatalf("### Can't init database: %v", err)
	}
	defer closeDB()

	ctx := context.Background()
	if err := database.Migrate(ctx, db); err != nil {
		log.Fatalf("### Can't migrate database: %v", err)
	}

	n, err := importCards(ctx, db, cards)
	if err != nil {
		log.Fatalf("### Can't import cards: %v", err)
	}

	log.Printf("%d of %d cards imported. Elapsed: %s", n, len(cards), time.Since(t0))
}

func parseCards(data []byte) ([]model.NfcCard, error) {
	var entries []cardEntry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("can't decode yaml: %w", err)
	}

	cards := make([]model.NfcCard, 0, len(entries))
	for i, e := range entries {
		username := strings.ToLower(strings.TrimSpace(e.Username))
		if err := model.ValidateUsername(username); err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}

		uid, err := model.NormalizeCardUID(e.CardUID)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}

		cards = append(cards, model.NfcCard{Username: username, CardUID: uid})
	}

	return cards, nil
}

func importCards(ctx context.Context, db *sql.DB, cards []model.NfcCard) (imported int, err error) {
	err = database.WithTx(ctx, db, func(tx *sql.Tx) error {
		repo := &database.NfcCardDatabase{DB: tx}

		for _, c := range cards {
			owner, err := repo.GetByCard(ctx, c.CardUID)
			switch {
			case errors.Is(err, database.ErrNotFound):
			case err != nil:
				return err
			case owner.Username != c.Username:
				slog.Warn("card is bound to another member, skipping",
					slog.String("card_uid", c.CardUID),
					slog.String("username", c.Username),
					slog.String("owner", owner.Username),
				)
				continue
			}

			if _, err := repo.Upsert(ctx, c); err != nil {
				return err
			}
			imported++
		}

		return nil
	})

	return imported, err
}
