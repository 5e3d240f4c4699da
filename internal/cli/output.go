package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/plaza-world/plaza/internal/model"
	"github.com/plaza-world/plaza/internal/moderation"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
}

// NewOutput creates a new Output formatter
func NewOutput(format string) *Output {
	return &Output{format: format}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintError outputs an error
func (o *Output) PrintError(err error) {
	if o.format == "json" {
		errData := map[string]any{
			"error": map[string]string{
				"message": err.Error(),
			},
		}
		data, _ := json.Marshal(errData)
		fmt.Fprintln(os.Stderr, string(data))
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Println(string(data))
	} else {
		fmt.Println(msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case BannedWordsResult:
		o.printBannedWords(v)
	case BannedIPsResult:
		o.printBannedIPs(v)
	case BanIPResult:
		o.printBanIP(v)
	case DrawingsResult:
		o.printDrawings(v)
	case PlayersResult:
		o.printPlayers(v)
	case ChatLogResult:
		o.printChatLog(v)
	case StrictModeResult:
		o.printStrictMode(v)
	case HealthResult:
		o.printHealth(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// BannedWordsResult response type
type BannedWordsResult struct {
	Words []model.BannedWord `json:"words"`
}

// BannedIPsResult response type
type BannedIPsResult struct {
	IPs []string `json:"ips"`
}

// BanIPResult response type
type BanIPResult struct {
	Kicked bool `json:"kicked"`
}

// DrawingsResult response type
type DrawingsResult struct {
	Drawings []model.Drawing `json:"drawings"`
}

// PlayersResult response type
type PlayersResult struct {
	Players []model.Player `json:"players"`
	Count   int            `json:"count"`
}

// ChatLogResult response type
type ChatLogResult struct {
	Entries []moderation.ChatLogEntry `json:"entries"`
}

// StrictModeResult response type
type StrictModeResult struct {
	Enabled bool `json:"enabled"`
}

// HealthResult response type
type HealthResult struct {
	Status string `json:"status"`
}

func (o *Output) printBannedWords(r BannedWordsResult) {
	if len(r.Words) == 0 {
		fmt.Println("No banned words")
		return
	}
	fmt.Printf("Banned words (%d):\n", len(r.Words))
	for _, w := range r.Words {
		flag := ""
		if w.FullBan {
			flag = " [full ban]"
		}
		fmt.Printf("  - %s%s\n", w.Word, flag)
	}
}

func (o *Output) printBannedIPs(r BannedIPsResult) {
	if len(r.IPs) == 0 {
		fmt.Println("No banned IPs")
		return
	}
	fmt.Printf("Banned IPs (%d):\n", len(r.IPs))
	for _, ip := range r.IPs {
		fmt.Printf("  - %s\n", ip)
	}
}

func (o *Output) printBanIP(r BanIPResult) {
	if r.Kicked {
		fmt.Println("IP banned; live connection kicked")
	} else {
		fmt.Println("IP banned")
	}
}

func (o *Output) printDrawings(r DrawingsResult) {
	if len(r.Drawings) == 0 {
		fmt.Println("No drawings")
		return
	}
	fmt.Printf("Drawings (%d):\n", len(r.Drawings))
	for _, d := range r.Drawings {
		status := "pending"
		if d.Approved {
			status = "approved"
		}
		fmt.Printf("  - %s by %s (%d bytes, %s, submitted %s)\n",
			d.ID, d.Author, len(d.Data), status, d.CreatedAt.Format("2006-01-02 15:04:05"))
	}
}

func (o *Output) printPlayers(r PlayersResult) {
	fmt.Printf("Connected players: %d\n", r.Count)
	for _, p := range r.Players {
		fmt.Printf("  - #%d %s at (%d, %d)", p.ID, p.Name, p.Position.X, p.Position.Y)
		if p.Emote != "" {
			fmt.Printf(" [%s]", p.Emote)
		}
		fmt.Println()
	}
}

func (o *Output) printChatLog(r ChatLogResult) {
	if len(r.Entries) == 0 {
		fmt.Println("Chat log is empty")
		return
	}
	for _, e := range r.Entries {
		flag := ""
		if e.Flagged {
			flag = " [flagged]"
		}
		fmt.Printf("%s %s (%s): %s%s\n",
			e.Timestamp.Format("15:04:05"), e.Sender, e.IP, e.Text, flag)
	}
}

func (o *Output) printStrictMode(r StrictModeResult) {
	if r.Enabled {
		fmt.Println("Strict mode: enabled")
	} else {
		fmt.Println("Strict mode: disabled")
	}
}

func (o *Output) printHealth(h HealthResult) {
	fmt.Printf("Status: %s\n", h.Status)
}
