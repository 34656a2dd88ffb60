package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"codewalk/internal/artifact"
	"codewalk/internal/config"
	"codewalk/internal/gh"
	"codewalk/internal/llm"
	"codewalk/internal/run"
	"codewalk/internal/store"
	"codewalk/internal/walkthrough"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx := context.Background()

	fetcher, err := gh.NewClient(gh.Options{
		Token:       cfg.GitHub.Token,
		BaseURL:     cfg.GitHub.BaseURL,
		RPS:         cfg.GitHub.RPS,
		Burst:       cfg.GitHub.Burst,
		Concurrency: cfg.GitHub.Concurrency,
		CacheTTL:    cfg.GitHub.CacheTTL,
	})
	if err != nil {
		log.Fatalf("github client: %v", err)
	}

	var model llm.Client
	if cfg.LLM.Fake {
		model = &llm.FakeClient{}
		log.Printf("LLM_FAKE is set; serving canned model responses")
	} else {
		model, err = llm.NewGeminiClient(ctx, cfg.LLM.Model)
		if err != nil {
			log.Fatalf("gemini client: %v", err)
		}
	}
	// Retry sits outside the limiters so each retry attempt pays quota.
	model = llm.Wrap(model,
		llm.WithLogging(nil),
		llm.WithHooks(),
		llm.Retry(3, 300*time.Millisecond),
		llm.RateLimit(cfg.LLM.RPS, cfg.LLM.Burst),
		llm.MultiLimit(cfg.LLM.RPM, cfg.LLM.RPD, cfg.LLM.TPM),
	)
	defer model.Close()

	results := store.NewFromEnv(cfg.Store.Path)
	defer results.Close()

	var artifacts artifact.Store
	if cfg.Artifact.Enabled {
		s3, err := artifact.NewS3Store(artifact.S3Config{
			Endpoint:  cfg.Artifact.Endpoint,
			Region:    cfg.Artifact.Region,
			AccessKey: cfg.Artifact.AccessKey,
			SecretKey: cfg.Artifact.SecretKey,
			Bucket:    cfg.Artifact.Bucket,
			UseSSL:    cfg.Artifact.UseSSL,
		})
		if err != nil {
			log.Printf("artifact store disabled: %v", err)
		} else {
			artifacts = s3
		}
	}

	svc := walkthrough.New(fetcher, model, results, walkthrough.Options{
		Budget: walkthrough.Budget{
			MaxFiles:  cfg.Limits.MaxFiles,
			MaxTokens: cfg.Limits.MaxTokens,
		},
		MaxFileBytes: cfg.Limits.MaxFileBytes,
		MinFiles:     cfg.Limits.MinFiles,
	})

	s := newAPIServer(svc, results, run.NewRegistry(0), artifacts)
	h := corsMiddleware(buildMux(s))

	log.Printf("Starting API server on %s (env=%s)", cfg.Port, cfg.Env)
	log.Fatal(http.ListenAndServe(cfg.Port, h2c.NewHandler(h, &http2.Server{})))
}

// corsMiddleware mirrors the permissive CORS the frontend expects.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Vary", "Origin")
		} else {
			w.Header().Set("Access-Control-Allow-Origin", "*")
		}
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding, Authorization")
		if r.Method == http.MethodOptions {
			return
		}
		next.ServeHTTP(w, r)
	})
}
