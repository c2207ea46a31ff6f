package main

import (
	"log"
	"net/http"

	"finance-app-server/src/api"
	"finance-app-server/src/classify"
	"finance-app-server/src/config"
	"finance-app-server/src/db"
	sqldb "finance-app-server/src/db/sql"
	"finance-app-server/src/feed"
	"finance-app-server/src/llm"
	syncer "finance-app-server/src/sync"
)

func main() {
	cfg := config.Load()

	pool, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Unable to connect to database: %v", err)
	}
	defer pool.Close()

	db.InitCache()

	feedClient := feed.NewPlaidClient(cfg.PlaidClientID, cfg.PlaidSecret, cfg.PlaidEnv, cfg.PlaidWebhookURL)
	llmClient := llm.NewClient(cfg.LLMAPIURL, cfg.LLMAPIToken)

	// Without an LLM endpoint configured, fall back to keyword rules.
	var classifier classify.Classifier = classify.Local{}
	if cfg.LLMAPIURL != "" {
		classifier = classify.NewRemote(llmClient)
	}

	engine := syncer.NewEngine(sqldb.NewStore(pool), feedClient, classifier)

	router := api.NewRouter(pool, &cfg, feedClient, feedClient.API(), engine, llmClient)

	log.Printf("INFO: Server starting on port %s", cfg.Port)
	if err := http.ListenAndServe(":"+cfg.Port, router); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
