// vizctl sends actions to a running liveviz over its framed TCP transport.
//
//	vizctl send '{"action":"CreateArray","values":["5","3","0"]}'
//	echo '{"action":"Clear"}' | vizctl send -token secret
//	vizctl hash secret
package main

import (
	"bufio"
	"bytes"
	"flag"
	"fmt"
	"io"
	"net"
	"os"
	"time"

	"github.com/goccy/go-json"

	"github.com/visuscript/liveviz/internal/action"
	gonet "github.com/visuscript/liveviz/internal/net"
)

func printUsage() {
	fmt.Println("Usage: vizctl <command> [flags] [args]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  send   Send one action per argument (or per stdin line), print each response")
	fmt.Println("  hash   Print the bcrypt hash of a token for auth.token_hash")
	fmt.Println("  kinds  List the action kinds the server accepts")
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	cmd := os.Args[1]

	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	addr := fs.String("addr", "127.0.0.1:7878", "server TCP address")
	token := fs.String("token", os.Getenv("LIVEVIZ_TOKEN"), "bearer token, if the server requires one")
	timeout := fs.Duration("timeout", 10*time.Second, "per-request timeout")
	_ = fs.Parse(os.Args[2:])

	var err error
	switch cmd {
	case "send":
		err = send(*addr, *token, *timeout, fs.Args())
	case "hash":
		if fs.NArg() != 1 {
			err = fmt.Errorf("hash takes exactly one token")
			break
		}
		var hash string
		if hash, err = gonet.HashToken(fs.Arg(0)); err == nil {
			fmt.Println(hash)
		}
	case "kinds":
		for _, k := range action.Kinds() {
			fmt.Println(k)
		}
	case "-h", "--help", "help":
		printUsage()
	default:
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(1)
	}
}

func send(addr, token string, timeout time.Duration, args []string) error {
	payloads, err := collect(args, os.Stdin)
	if err != nil {
		return err
	}
	for _, p := range payloads {
		// catch typos before they cost a round trip
		if _, err := action.Decode(p); err != nil {
			return err
		}
	}

	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	defer conn.Close()

	if token != "" {
		resp, err := roundTrip(conn, []byte(token), timeout)
		if err == nil {
			err = resp.Error()
		}
		if err != nil {
			return fmt.Errorf("authenticate: %w", err)
		}
	}

	failed := false
	for _, p := range payloads {
		resp, err := roundTrip(conn, p, timeout)
		if err != nil {
			return err
		}
		out, err := json.Marshal(resp)
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		if resp.Result == action.ResultError {
			failed = true
		}
	}
	if failed {
		return fmt.Errorf("one or more actions failed")
	}
	return nil
}

// collect returns args, or the non-empty lines of r when there are none.
func collect(args []string, r io.Reader) ([][]byte, error) {
	var out [][]byte
	for _, a := range args {
		out = append(out, []byte(a))
	}
	if len(out) > 0 {
		return out, nil
	}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 4096), gonet.MaxPayload)
	for sc.Scan() {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		out = append(out, append([]byte(nil), line...))
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read stdin: %w", err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no action given")
	}
	return out, nil
}

func roundTrip(conn net.Conn, payload []byte, timeout time.Duration) (action.Response, error) {
	var resp action.Response
	conn.SetDeadline(time.Now().Add(timeout))
	if err := gonet.WriteFrame(conn, payload); err != nil {
		return resp, err
	}
	raw, err := gonet.ReadFrame(conn)
	if err != nil {
		return resp, err
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return resp, fmt.Errorf("bad response: %w", err)
	}
	return resp, nil
}
