package main

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/toofancoder/jobtrack/internal/extract"
	"github.com/toofancoder/jobtrack/internal/ledger"
	"github.com/toofancoder/jobtrack/internal/mailbox"
	"github.com/toofancoder/jobtrack/internal/semantic"
	"github.com/toofancoder/jobtrack/internal/store"
	anthropicpkg "github.com/toofancoder/jobtrack/pkg/anthropic"
	googlepkg "github.com/toofancoder/jobtrack/pkg/google"
	"github.com/toofancoder/jobtrack/pkg/notion"
)

// trackEnv holds the initialized store, ledger, and extraction pipeline
// shared by the track/import/serve commands.
type trackEnv struct {
	Store    store.Store
	Ledger   ledger.Ledger
	Applier  *ledger.Applier
	Parser   *extract.Parser
	Vocab    extract.Config
	Semantic semantic.Extractor // nil when not configured
}

// Close releases resources held by the environment.
func (e *trackEnv) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// initEnv sets up the store, the configured ledger backend, and the
// message parser. Callers should defer env.Close().
func initEnv(ctx context.Context) (*trackEnv, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	led, err := initLedger(ctx)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	vocab, err := loadVocabulary()
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	var sem semantic.Extractor
	parserOpts := []extract.ParserOption{}
	if cfg.Anthropic.Enabled() {
		client := anthropicpkg.NewClient(cfg.Anthropic.Key)
		sem = semantic.NewClaudeExtractor(client, cfg.Anthropic.Model)
		parserOpts = append(parserOpts, extract.WithSemantic(sem, cfg.Anthropic.MinConfidence))
		zap.L().Info("semantic extraction enabled", zap.String("model", cfg.Anthropic.Model))
	} else {
		zap.L().Debug("JOBTRACK_ANTHROPIC_KEY not set, using heuristic extraction only")
	}

	fallback := ledger.NewCSVLedger(cfg.Ledger.FallbackPath)

	return &trackEnv{
		Store:    st,
		Ledger:   led,
		Applier:  ledger.NewApplier(led, fallback),
		Parser:   extract.NewParser(vocab, parserOpts...),
		Vocab:    vocab,
		Semantic: sem,
	}, nil
}

// initStore creates the configured state store.
func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "postgres":
		st, err := store.NewPostgres(ctx, cfg.Store.DatabaseURL, nil)
		if err != nil {
			return nil, eris.Wrap(err, "init postgres store")
		}
		return st, nil
	case "sqlite", "":
		st, err := store.NewSQLite(cfg.Store.SQLitePath)
		if err != nil {
			return nil, eris.Wrap(err, "init sqlite store")
		}
		return st, nil
	default:
		return nil, eris.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

// initLedger creates the configured ledger backend.
func initLedger(ctx context.Context) (ledger.Ledger, error) {
	switch cfg.Ledger.Backend {
	case "sheets", "":
		httpClient, err := googleAuth().HTTPClient(ctx)
		if err != nil {
			return nil, err
		}
		svc, err := googlepkg.NewSheetsService(ctx, httpClient)
		if err != nil {
			return nil, err
		}
		if cfg.Sheets.SpreadsheetID == "" {
			return nil, eris.New("sheets.spreadsheet_id is required for the sheets backend")
		}
		return ledger.NewSheetsLedger(ledger.NewSheetsAPI(svc), cfg.Sheets.SpreadsheetID, cfg.Sheets.SheetName), nil

	case "notion":
		if cfg.Notion.Token == "" || cfg.Notion.DatabaseID == "" {
			return nil, eris.New("notion.token and notion.database_id are required for the notion backend")
		}
		return ledger.NewNotionLedger(notion.NewClient(cfg.Notion.Token), cfg.Notion.DatabaseID), nil

	case "csv":
		return ledger.NewCSVLedger(cfg.Ledger.CSVPath), nil

	default:
		return nil, eris.Errorf("unknown ledger backend %q", cfg.Ledger.Backend)
	}
}

// initMailbox creates the Gmail message source.
func initMailbox(ctx context.Context) (mailbox.Source, error) {
	httpClient, err := googleAuth().HTTPClient(ctx)
	if err != nil {
		return nil, err
	}
	svc, err := googlepkg.NewGmailService(ctx, httpClient)
	if err != nil {
		return nil, err
	}
	return mailbox.NewGmailSource(svc, cfg.Gmail.ProcessedLabel), nil
}

func googleAuth() googlepkg.Auth {
	return googlepkg.Auth{
		CredentialsPath: cfg.Gmail.CredentialsPath,
		TokenPath:       cfg.Gmail.TokenPath,
	}
}

// loadVocabulary loads the extraction vocabulary, with optional overrides.
func loadVocabulary() (extract.Config, error) {
	if cfg.Extract.VocabularyPath == "" {
		return extract.DefaultConfig(), nil
	}
	vocab, err := extract.LoadConfig(cfg.Extract.VocabularyPath)
	if err != nil {
		return vocab, eris.Wrap(err, "load vocabulary")
	}
	return vocab, nil
}
