// Results API serves the latest classification output and pushes refreshed
// results to websocket subscribers whenever a pipeline run replaces the
// output artifact. Read-only viewer; it never touches the cache.
package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/glintsolar/pvdiag/pkg/config"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins in development
	},
}

var (
	wsClients      = make(map[*websocket.Conn]bool)
	wsClientsMutex sync.RWMutex

	latestMutex   sync.RWMutex
	latestResults []byte
)

func main() {
	cfg, err := config.LoadPipelineConfig("pvdiag.toml")
	if err != nil {
		log.Fatalf("Failed to load pipeline config: %v", err)
	}

	go watchOutput(cfg.OutputPath)

	http.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		response := map[string]string{
			"message": "PV Fault Diagnosis Results API",
			"status":  "running",
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(response)
	})

	http.HandleFunc("/results", func(w http.ResponseWriter, r *http.Request) {
		latestMutex.RLock()
		results := latestResults
		latestMutex.RUnlock()

		w.Header().Set("Content-Type", "application/json")
		if results == nil {
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]string{
				"error": "No classification output available yet",
			})
			return
		}
		w.Write(results)
	})

	http.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("WebSocket upgrade error: %v", err)
			return
		}

		addWebSocketClient(conn)

		// Send current results immediately if available
		latestMutex.RLock()
		results := latestResults
		latestMutex.RUnlock()
		if results != nil {
			conn.WriteMessage(websocket.TextMessage, results)
		}

		// Keep connection alive
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				removeWebSocketClient(conn)
				break
			}
		}
	})

	listener := fmt.Sprintf("%s:%d", cfg.ListenAddress, cfg.ListenPort)
	log.Printf("Starting PV Fault Diagnosis Results API on %s", listener)
	log.Fatal(http.ListenAndServe(listener, nil))
}

// watchOutput polls the output artifact and broadcasts when a pipeline run
// replaces it. Runs are batch and minutes apart; polling is plenty.
func watchOutput(path string) {
	var lastModified time.Time
	for {
		info, err := os.Stat(path)
		if err == nil && info.ModTime().After(lastModified) {
			data, err := os.ReadFile(path)
			if err != nil {
				log.Printf("Error reading output artifact: %v", err)
			} else {
				lastModified = info.ModTime()
				latestMutex.Lock()
				latestResults = data
				latestMutex.Unlock()
				broadcastToWebSockets(data)
				log.Printf("Loaded classification output (%d bytes)", len(data))
			}
		}
		time.Sleep(5 * time.Second)
	}
}

func broadcastToWebSockets(data []byte) {
	wsClientsMutex.RLock()
	clients := make([]*websocket.Conn, 0, len(wsClients))
	for client := range wsClients {
		clients = append(clients, client)
	}
	wsClientsMutex.RUnlock()

	for _, client := range clients {
		if err := client.WriteMessage(websocket.TextMessage, data); err != nil {
			removeWebSocketClient(client)
		}
	}
}

func addWebSocketClient(conn *websocket.Conn) {
	wsClientsMutex.Lock()
	wsClients[conn] = true
	wsClientsMutex.Unlock()
}

func removeWebSocketClient(conn *websocket.Conn) {
	wsClientsMutex.Lock()
	delete(wsClients, conn)
	wsClientsMutex.Unlock()
	conn.Close()
}
