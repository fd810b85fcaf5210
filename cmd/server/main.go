package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/firestore"
	gcs "cloud.google.com/go/storage"
	"connectrpc.com/connect"
	"github.com/castlemilk/finsight/internal/analytics"
	"github.com/castlemilk/finsight/internal/auth"
	"github.com/castlemilk/finsight/internal/config"
	"github.com/castlemilk/finsight/internal/enrich"
	"github.com/castlemilk/finsight/internal/extraction"
	"github.com/castlemilk/finsight/internal/logger"
	"github.com/castlemilk/finsight/internal/service"
	"github.com/castlemilk/finsight/internal/store"
	"github.com/rs/cors"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
	"google.golang.org/api/option"
)

const categoryCacheEntries = 10_000

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New()
		bootLog.Fatal().Err(err).Msg("invalid configuration")
	}
	log := logger.NewWithOptions(os.Stdout, logger.ParseFormat(cfg.LogFormat), logger.ParseLevel(cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var clientOpts []option.ClientOption
	if cfg.CredentialsFile != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	var (
		storeImpl    store.Store
		firebaseAuth *auth.FirebaseAuth
	)
	if cfg.UseMemoryStore {
		log.Info().Msg("using in-memory store for local development")
		storeImpl = store.NewMemoryStore()
	} else {
		firestoreClient, err := firestore.NewClient(ctx, cfg.ProjectID, clientOpts...)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create Firestore client")
		}
		defer firestoreClient.Close()
		storeImpl = store.NewFirestoreStore(firestoreClient)

		if cfg.SkipAuth {
			log.Warn().Msg("SKIP_AUTH enabled, using mock authentication with Firestore")
		} else {
			firebaseAuth, err = auth.NewFirebaseAuth(ctx, cfg.ProjectID, cfg.CredentialsFile)
			if err != nil {
				log.Fatal().Err(err).Msg("failed to initialize Firebase Auth")
			}
		}
	}

	analyzer := analytics.NewAnalyzer(store.NewSource(storeImpl),
		analytics.WithWindows(cfg.Windows),
		analytics.WithLogger(log.With().Str("component", "analyzer").Logger()),
	)

	opts := []service.Option{service.WithLogger(log)}

	var (
		classifier extraction.Classifier
		ocr        extraction.OCR
	)
	if cfg.MLServiceURL != "" {
		ml := extraction.NewMLClient(cfg.MLServiceURL)
		classifier, ocr = ml, ml
		opts = append(opts, service.WithMLHealth(ml))
		log.Info().Str("url", cfg.MLServiceURL).Msg("ML service configured")
	}

	cached, err := extraction.NewCachedCategorizer(extraction.NewChainCategorizer(classifier, log), categoryCacheEntries)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create categorizer cache")
	}
	defer cached.Close()
	opts = append(opts, service.WithCategorizer(cached))

	scannerOpts := []extraction.ScannerOption{extraction.WithScannerLogger(log)}
	if cfg.ReceiptBucket != "" {
		storageClient, err := gcs.NewClient(ctx, clientOpts...)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create Cloud Storage client")
		}
		defer storageClient.Close()
		scannerOpts = append(scannerOpts, extraction.WithArchive(extraction.NewGCSArchive(storageClient, cfg.ReceiptBucket)))
	}
	opts = append(opts, service.WithScanner(extraction.NewReceiptScanner(ocr, scannerOpts...)))

	model, err := newModel(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("provider", cfg.LLMProvider).Msg("failed to create LLM client")
	}
	if model != nil {
		enricher := enrich.New(model, enrich.WithLogger(log))
		opts = append(opts, service.WithEnricher(enricher, cfg.LLMProvider))
		log.Info().Str("model", model.Name()).Msg("LLM insights enabled")
	}

	svc := service.NewAnalyticsService(storeImpl, analyzer, opts...)

	// Debug interceptor first so impersonation is visible to the rest.
	interceptors := []connect.Interceptor{auth.DebugAuthInterceptor(cfg.SkipAuth)}
	if firebaseAuth != nil {
		interceptors = append(interceptors, auth.AuthInterceptor(firebaseAuth))
	} else {
		log.Info().Msg("using mock authentication for local development")
		interceptors = append(interceptors, auth.LocalDevInterceptor())
	}
	interceptors = append(interceptors, service.LoggingInterceptor(log))

	path, handler := service.NewHandler(svc, connect.WithInterceptors(interceptors...))

	mux := http.NewServeMux()
	mux.Handle(path, handler)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           h2c.NewHandler(withCORS(mux), &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown failed")
		}
	}()

	log.Info().Str("addr", srv.Addr).Str("env", cfg.Env).Msg("starting server")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("server failed")
	}
	log.Info().Msg("server stopped")
}

// newModel returns the configured LLM backend, or nil when LLM insights
// are off.
func newModel(ctx context.Context, cfg *config.Config) (enrich.Model, error) {
	switch cfg.LLMProvider {
	case config.ProviderGemini:
		return enrich.NewGemini(ctx, cfg.GeminiModel)
	case config.ProviderAnthropic:
		return enrich.NewClaude(cfg.AnthropicKey, cfg.AnthropicModel), nil
	default:
		return nil, nil
	}
}

func withCORS(h http.Handler) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins: []string{
			"http://localhost:1234",
			"http://127.0.0.1:1234",
		},
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodOptions,
		},
		AllowedHeaders: []string{
			"Accept",
			"Authorization",
			"Connect-Protocol-Version",
			"Connect-Timeout-Ms",
			"Content-Type",
			"Grpc-Timeout",
			"User-Agent",
			"X-Grpc-Web",
			"X-User-Agent",
			"X-Debug-Impersonate-User",
		},
		ExposedHeaders: []string{
			"Grpc-Status",
			"Grpc-Message",
			"Grpc-Status-Details-Bin",
		},
		AllowCredentials: true,
	}).Handler(h)
}
