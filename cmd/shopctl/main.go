// Command shopctl is an interactive terminal client for a running shopassist
// server: a chat REPL plus admin commands for sessions and approvals.
package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"syscall"
	"time"

	"golang.org/x/term"
)

type chatReply struct {
	SessionID  string `json:"session_id"`
	Answer     string `json:"answer"`
	Route      string `json:"route"`
	ApprovalID string `json:"approval_id,omitempty"`
	Cached     bool   `json:"cached,omitempty"`
}

type client struct {
	baseURL string
	http    *http.Client
}

func main() {
	baseURL := flag.String("server", "http://localhost:8080", "shopassist server base URL")
	userID := flag.String("user", "", "user id to chat as")
	flag.Parse()

	c := &client{
		baseURL: strings.TrimRight(*baseURL, "/"),
		http:    &http.Client{Timeout: 150 * time.Second},
	}

	if err := c.repl(*userID); err != nil {
		fmt.Fprintf(os.Stderr, "shopctl: %v\n", err)
		os.Exit(1)
	}
}

func (c *client) repl(userID string) error {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return fmt.Errorf("shopctl needs an interactive terminal")
	}

	fmt.Println("shopctl connected to", c.baseURL)
	fmt.Println(`Type a message to chat, or a command: /sessions, /history, /approvals, /approve <id>, /reject <id>, /login <user-id>, /quit`)

	sessionID := ""
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			done, err := c.command(line, &sessionID, &userID)
			if err != nil {
				fmt.Println("error:", err)
			}
			if done {
				return nil
			}
			continue
		}

		reply, err := c.chat(sessionID, userID, line)
		if err != nil {
			fmt.Println("error:", err)
			continue
		}
		sessionID = reply.SessionID
		fmt.Println(reply.Answer)
		if reply.ApprovalID != "" {
			fmt.Printf("[review requested: %s]\n", reply.ApprovalID)
		}
	}
}

func (c *client) command(line string, sessionID, userID *string) (bool, error) {
	fields := strings.Fields(line)
	switch fields[0] {
	case "/quit", "/exit":
		return true, nil
	case "/login":
		if len(fields) < 2 {
			return false, fmt.Errorf("usage: /login <user-id>")
		}
		// The password prompt is cosmetic for now; the server trusts the
		// user id it is given.
		fmt.Print("password: ")
		if _, err := term.ReadPassword(syscall.Stdin); err != nil {
			return false, err
		}
		fmt.Println()
		*userID = fields[1]
		fmt.Println("logged in as", *userID)
		return false, nil
	case "/sessions":
		return false, c.printJSON("/v1/sessions", nil)
	case "/history":
		if *sessionID == "" {
			return false, fmt.Errorf("no active session yet")
		}
		return false, c.printJSON("/v1/sessions/"+url.PathEscape(*sessionID)+"/history", nil)
	case "/approvals":
		return false, c.printJSON("/v1/approvals", url.Values{"status": {"pending"}})
	case "/approve", "/reject":
		if len(fields) < 2 {
			return false, fmt.Errorf("usage: %s <approval-id>", fields[0])
		}
		decision := strings.TrimPrefix(fields[0], "/")
		return false, c.resolve(fields[1], decision)
	default:
		return false, fmt.Errorf("unknown command %s", fields[0])
	}
}

func (c *client) chat(sessionID, userID, message string) (chatReply, error) {
	var reply chatReply

	payload, err := json.Marshal(map[string]string{
		"session_id": sessionID,
		"user_id":    userID,
		"message":    message,
	})
	if err != nil {
		return reply, err
	}

	resp, err := c.http.Post(c.baseURL+"/v1/chat", "application/json", bytes.NewReader(payload))
	if err != nil {
		return reply, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return reply, fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return reply, json.NewDecoder(resp.Body).Decode(&reply)
}

func (c *client) resolve(approvalID, decision string) error {
	payload, err := json.Marshal(map[string]string{"decision": decision})
	if err != nil {
		return err
	}

	resp, err := c.http.Post(c.baseURL+"/v1/approvals/"+url.PathEscape(approvalID), "application/json", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	fmt.Println(strings.TrimSpace(string(body)))
	return nil
}

func (c *client) printJSON(path string, query url.Values) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	resp, err := c.http.Get(u)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var pretty bytes.Buffer
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if err := json.Indent(&pretty, body, "", "  "); err != nil {
		fmt.Println(strings.TrimSpace(string(body)))
		return nil
	}
	fmt.Println(pretty.String())
	return nil
}
