package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net"
	"strings"
	"sync"

	"github.com/Jon-Bright/agxclk/clkmgr"
)

var port = flag.Int("port", 24601, "The port that the server should listen to")

// Server answers clock queries over TCP, one command per line. The Manager
// is not safe for concurrent use, so every command holds mu.
type Server struct {
	m  *clkmgr.Manager
	l  net.Listener
	mu sync.Mutex
}

func NewServer(port int, m *clkmgr.Manager) (*Server, error) {
	l, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return nil, err
	}
	log.Printf("Listening on port %d", port)
	return &Server{m: m, l: l}, nil
}

func (s *Server) parseClock(parms string) (clkmgr.ClockID, error) {
	if parms == "" {
		return 0, fmt.Errorf("no clock given")
	}
	return clkmgr.ParseClockID(parms)
}

// command runs one command and returns its reply line.
func (s *Server) command(cmd, parms string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch cmd {
	case "RATE":
		id, err := s.parseClock(parms)
		if err != nil {
			return "", err
		}
		hz, err := s.m.Rate(id)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%d", hz), nil
	case "ENABLE":
		id, err := s.parseClock(parms)
		if err != nil {
			return "", err
		}
		err = s.m.Enable(id)
		if err != nil {
			return "", err
		}
		return "OK", nil
	case "LIST":
		names := make([]string, len(clkmgr.SupportedClocks))
		for i, id := range clkmgr.SupportedClocks {
			names[i] = id.String()
		}
		return strings.Join(names, " "), nil
	case "STATUS":
		return formatStatus(s.m.Status()), nil
	}
	return "", fmt.Errorf("unknown command: %s", cmd)
}

func (s *Server) handleConnection(c net.Conn) {
	log.Printf("Handling connection from %v", c.RemoteAddr())
	defer c.Close()
	r := bufio.NewReader(c)
	w := bufio.NewWriter(c)
	for {
		l, err := r.ReadString('\n')
		if err == io.EOF {
			log.Printf("EOF for connection %v", c.RemoteAddr())
			return
		}
		if err != nil {
			log.Printf("Error reading string for connection %v: %v", c.RemoteAddr(), err)
			return
		}
		l = strings.TrimSpace(l)
		log.Printf("Got line '%s'", l)
		t := strings.SplitN(l, " ", 2)
		cmd := strings.ToUpper(t[0])
		parms := ""
		if len(t) > 1 {
			parms = strings.TrimSpace(t[1])
		}
		if cmd == "QUIT" {
			return
		}
		rep, err := s.command(cmd, parms)
		if err != nil {
			es := fmt.Sprintf("Error running command: %v", err)
			log.Print(es)
			rep = "ERR: " + es
		}
		w.WriteString(rep + "\n")
		err = w.Flush()
		if err != nil {
			log.Printf("error writing reply: %v", err)
			return
		}
	}
}

// handleConnections serves until the listener is closed.
func (s *Server) handleConnections() {
	for {
		conn, err := s.l.Accept()
		if errors.Is(err, net.ErrClosed) {
			return
		}
		if err != nil {
			log.Printf("Error accepting connection: %v", err)
			continue
		}
		go s.handleConnection(conn)
	}
}

func (s *Server) Close() error {
	return s.l.Close()
}
