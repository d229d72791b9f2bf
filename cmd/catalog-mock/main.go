package main

import (
	"encoding/json"
	"flag"
	"log"
	"net/http"
	"os"
	"strings"
)

type movieEntry struct {
	Title       string   `json:"title"`
	Overview    string   `json:"overview"`
	PosterPath  string   `json:"poster_path"`
	ReleaseDate string   `json:"release_date,omitempty"`
	VoteAverage *float64 `json:"vote_average,omitempty"`
}

func main() {
	var (
		port = flag.String("port", "9098", "port to listen on")
		data = flag.String("data", "data/movies.json", "path to catalog data file")
	)
	flag.Parse()

	file, err := os.ReadFile(*data)
	if err != nil {
		log.Fatalf("read catalog data: %v", err)
	}

	var entries []movieEntry
	if err := json.Unmarshal(file, &entries); err != nil {
		log.Fatalf("parse catalog data: %v", err)
	}

	byTitle := make(map[string]movieEntry, len(entries))
	for _, entry := range entries {
		byTitle[strings.ToLower(strings.TrimSpace(entry.Title))] = entry
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/movies", func(w http.ResponseWriter, r *http.Request) {
		title := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("title")))
		entry, ok := byTitle[title]
		if !ok {
			http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(entry); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})

	addr := ":" + *port
	log.Printf("mock catalog listening on %s with %d entries", addr, len(byTitle))
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
