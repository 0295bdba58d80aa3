package main

import (
	"encoding/json"
	"flag"
	"net/url"
	"os"
	"os/signal"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

func main() {
	var (
		addr      = flag.String("addr", "localhost:5002", "server host:port")
		audioPath = flag.String("audio", "sample_audio.webm", "compressed audio file to stream")
		chunkSize = flag.Int("chunk", 4096, "bytes per audio_stream chunk")
		interval  = flag.Duration("interval", 250*time.Millisecond, "delay between chunks")
		message   = flag.String("chat", "", "optional chat_message to send after the transcript")
		wait      = flag.Duration("wait", 30*time.Second, "how long to wait for server events")
	)
	flag.Parse()

	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	u := url.URL{Scheme: "ws", Host: *addr, Path: "/ws"}
	logger.Info("Connecting", zap.String("url", u.String()))

	c, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		logger.Fatal("dial failed", zap.Error(err))
	}
	defer c.Close()

	transcripts := make(chan string, 1)
	replies := make(chan struct{}, 1)
	done := make(chan struct{})

	// Start a goroutine to read messages from the server
	go handleIncomingMessages(c, logger, transcripts, replies, done)

	if err := streamAudio(c, *audioPath, *chunkSize, *interval, logger); err != nil {
		logger.Error("Streaming failed", zap.Error(err))
		return
	}

	if err := sendEvent(c, "stop_stream", nil); err != nil {
		logger.Error("Failed to send stop_stream", zap.Error(err))
		return
	}

	timeout := time.After(*wait)
	for {
		select {
		case transcript := <-transcripts:
			logger.Info("Utterance finalized", zap.String("transcript", transcript))
			if *message == "" {
				closeConnection(c, done)
				return
			}
			if err := sendEvent(c, "chat_message", map[string]string{"message": *message}); err != nil {
				logger.Error("Failed to send chat_message", zap.Error(err))
				return
			}
			*message = ""

		case <-replies:
			closeConnection(c, done)
			return

		case <-done:
			return

		case <-timeout:
			logger.Warn("Timed out waiting for server events")
			closeConnection(c, done)
			return

		case <-interrupt:
			logger.Info("interrupt")
			closeConnection(c, done)
			return
		}
	}
}

func streamAudio(c *websocket.Conn, path string, chunkSize int, interval time.Duration, logger *zap.Logger) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	totalChunks := (len(data) + chunkSize - 1) / chunkSize
	logger.Info("Streaming audio file",
		zap.String("path", path),
		zap.Int("bytes", len(data)),
		zap.Int("chunks", totalChunks))

	start := time.Now()
	for i := 0; i < totalChunks; i++ {
		begin := i * chunkSize
		end := begin + chunkSize
		if end > len(data) {
			end = len(data)
		}

		if err := c.WriteMessage(websocket.BinaryMessage, data[begin:end]); err != nil {
			return err
		}
		time.Sleep(interval)
	}

	logger.Info("Finished sending audio", zap.Duration("elapsed", time.Since(start)))
	return nil
}

func handleIncomingMessages(c *websocket.Conn, logger *zap.Logger, transcripts chan<- string, replies chan<- struct{}, done chan<- struct{}) {
	defer close(done)

	for {
		_, message, err := c.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Warn("read failed", zap.Error(err))
			}
			return
		}

		var ev envelope
		if err := json.Unmarshal(message, &ev); err != nil {
			logger.Warn("Unparseable frame", zap.ByteString("frame", message))
			continue
		}

		logger.Info("Event", zap.String("event", ev.Event), zap.ByteString("data", ev.Data))

		switch ev.Event {
		case "transcript_ready":
			var payload struct {
				Transcript string `json:"transcript"`
			}
			if err := json.Unmarshal(ev.Data, &payload); err == nil {
				select {
				case transcripts <- payload.Transcript:
				default:
				}
			}
		case "chat_reply":
			select {
			case replies <- struct{}{}:
			default:
			}
		}
	}
}

func sendEvent(c *websocket.Conn, event string, data interface{}) error {
	frame := envelope{Event: event}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return err
		}
		frame.Data = raw
	}
	return c.WriteJSON(frame)
}

// closeConnection sends a close frame and waits briefly for the server to
// close its side.
func closeConnection(c *websocket.Conn, done <-chan struct{}) {
	err := c.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	if err != nil {
		return
	}
	select {
	case <-done:
	case <-time.After(time.Second):
	}
}
