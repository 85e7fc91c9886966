package email

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"io"
	"math/big"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/emersion/go-smtp"
	"gopkg.in/mail.v2"

	"github.com/ymhc/dailyemail/internal/config"
)

// relay is an in-process SMTP server that accepts one set of credentials
// and records what it receives.
type relay struct {
	user     string
	password string

	mu      sync.Mutex
	authTLS []bool
	from    string
	to      []string
	data    []byte
	dataTLS bool
}

func (r *relay) NewSession(c *smtp.Conn) (smtp.Session, error) {
	return &relaySession{relay: r, conn: c}, nil
}

func (r *relay) received() (string, []string, []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.from, r.to, r.data
}

func (r *relay) tlsState() (authTLS []bool, dataTLS bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]bool(nil), r.authTLS...), r.dataTLS
}

type relaySession struct {
	relay  *relay
	conn   *smtp.Conn
	authed bool
}

func (s *relaySession) secure() bool {
	_, ok := s.conn.TLSConnectionState()
	return ok
}

func (s *relaySession) AuthPlain(username, password string) error {
	s.relay.mu.Lock()
	s.relay.authTLS = append(s.relay.authTLS, s.secure())
	s.relay.mu.Unlock()

	if username != s.relay.user || password != s.relay.password {
		return &smtp.SMTPError{Code: 535, Message: "invalid credentials"}
	}
	s.authed = true
	return nil
}

func (s *relaySession) Mail(from string, _ *smtp.MailOptions) error {
	if !s.authed {
		return &smtp.SMTPError{Code: 530, Message: "authentication required"}
	}
	s.relay.mu.Lock()
	s.relay.from = from
	s.relay.mu.Unlock()
	return nil
}

func (s *relaySession) Rcpt(to string, _ *smtp.RcptOptions) error {
	s.relay.mu.Lock()
	s.relay.to = append(s.relay.to, to)
	s.relay.mu.Unlock()
	return nil
}

func (s *relaySession) Data(r io.Reader) error {
	body, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.relay.mu.Lock()
	s.relay.data = body
	s.relay.dataTLS = s.secure()
	s.relay.mu.Unlock()
	return nil
}

func (s *relaySession) Reset() {}

func (s *relaySession) Logout() error { return nil }

// selfSignedCert returns a certificate for 127.0.0.1 and a pool trusting it.
func selfSignedCert(t *testing.T) (tls.Certificate, *x509.CertPool) {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	tmpl := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: "relay.test"},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(time.Hour),
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageCertSign,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		IPAddresses:           []net.IP{net.ParseIP("127.0.0.1")},
		BasicConstraintsValid: true,
		IsCA:                  true,
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	if err != nil {
		t.Fatalf("create certificate: %v", err)
	}
	leaf, err := x509.ParseCertificate(der)
	if err != nil {
		t.Fatalf("parse certificate: %v", err)
	}

	pool := x509.NewCertPool()
	pool.AddCert(leaf)
	return tls.Certificate{Certificate: [][]byte{der}, PrivateKey: key, Leaf: leaf}, pool
}

// startRelay serves r on a loopback port. A non-nil tlsConfig makes the
// relay offer STARTTLS.
func startRelay(t *testing.T, r *relay, tlsConfig *tls.Config) int {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	srv := smtp.NewServer(r)
	srv.Domain = "localhost"
	srv.AllowInsecureAuth = true
	srv.TLSConfig = tlsConfig

	go func() {
		_ = srv.Serve(ln)
	}()
	t.Cleanup(func() {
		_ = srv.Close()
	})

	return ln.Addr().(*net.TCPAddr).Port
}

// startTLSRelay serves r with STARTTLS and returns a sender that trusts it.
func startTLSRelay(t *testing.T, r *relay, password string) *SMTPSender {
	t.Helper()

	cert, pool := selfSignedCert(t)
	port := startRelay(t, r, &tls.Config{Certificates: []tls.Certificate{cert}})

	sender, err := NewSMTPSender(config.SMTPConfig{
		User:      "sender@example.org",
		Recipient: "list@example.org",
		Host:      "127.0.0.1",
		Port:      port,
		Password:  password,
	})
	if err != nil {
		t.Fatalf("NewSMTPSender returned error: %v", err)
	}
	sender.dialer.TLSConfig.RootCAs = pool
	return sender
}

func TestSMTPSenderDelivers(t *testing.T) {
	r := &relay{user: "sender@example.org", password: "secret"}
	sender := startTLSRelay(t, r, "secret")

	if err := sender.Send(context.Background(), testMessage()); err != nil {
		t.Fatalf("Send returned error: %v", err)
	}

	from, to, data := r.received()
	if from != "sender@example.org" {
		t.Fatalf("MAIL FROM = %q", from)
	}
	if len(to) != 1 || to[0] != "list@example.org" {
		t.Fatalf("RCPT TO = %q", to)
	}

	authTLS, dataTLS := r.tlsState()
	if len(authTLS) != 1 || !authTLS[0] {
		t.Fatalf("auth over TLS = %v, want one authenticated exchange after STARTTLS", authTLS)
	}
	if !dataTLS {
		t.Fatalf("message data was sent without TLS")
	}

	got := parseMessage(t, data)
	if got.rootType != "multipart/related" {
		t.Fatalf("delivered root type = %q", got.rootType)
	}
	if len(got.inline) != 1 || got.inline[0].contentID != "<logo-1@ymhc.ngo>" {
		t.Fatalf("delivered inline parts = %+v", got.inline)
	}
}

func TestSMTPSenderRequiresSTARTTLS(t *testing.T) {
	r := &relay{user: "sender@example.org", password: "secret"}
	port := startRelay(t, r, nil)

	sender, err := NewSMTPSender(config.SMTPConfig{
		User:      "sender@example.org",
		Recipient: "list@example.org",
		Host:      "127.0.0.1",
		Port:      port,
		Password:  "secret",
	})
	if err != nil {
		t.Fatalf("NewSMTPSender returned error: %v", err)
	}

	err = sender.Send(context.Background(), testMessage())
	if err == nil {
		t.Fatalf("Send succeeded against a relay without STARTTLS")
	}
	if !strings.HasPrefix(err.Error(), "smtp:") {
		t.Fatalf("error = %v, want smtp prefix", err)
	}

	if authTLS, _ := r.tlsState(); len(authTLS) != 0 {
		t.Fatalf("credentials were offered over plaintext")
	}
	if _, _, data := r.received(); data != nil {
		t.Fatalf("relay received data over plaintext")
	}
}

func TestSMTPSenderBadCredentials(t *testing.T) {
	r := &relay{user: "sender@example.org", password: "secret"}
	sender := startTLSRelay(t, r, "wrong")

	err := sender.Send(context.Background(), testMessage())
	if err == nil {
		t.Fatalf("expected authentication failure")
	}
	if !strings.HasPrefix(err.Error(), "smtp:") {
		t.Fatalf("error = %v, want smtp prefix", err)
	}
	if _, _, data := r.received(); data != nil {
		t.Fatalf("relay accepted data despite failed auth")
	}
}

func TestNewSMTPSenderImplicitTLS(t *testing.T) {
	sender, err := NewSMTPSender(config.SMTPConfig{Host: "smtp.example.org", Port: 465})
	if err != nil {
		t.Fatalf("NewSMTPSender returned error: %v", err)
	}
	if !sender.dialer.SSL {
		t.Fatalf("port 465 should use implicit TLS")
	}

	sender, err = NewSMTPSender(config.SMTPConfig{Host: "smtp.example.org", Port: 587})
	if err != nil {
		t.Fatalf("NewSMTPSender returned error: %v", err)
	}
	if sender.dialer.SSL || sender.dialer.StartTLSPolicy != mail.MandatoryStartTLS {
		t.Fatalf("port 587 should require STARTTLS")
	}
}

func TestSMTPSenderCancelledContext(t *testing.T) {
	sender, err := NewSMTPSender(config.SMTPConfig{Host: "127.0.0.1", Port: 2525})
	if err != nil {
		t.Fatalf("NewSMTPSender returned error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := sender.Send(ctx, testMessage()); err != context.Canceled {
		t.Fatalf("Send error = %v, want context.Canceled", err)
	}
}

func TestNewSMTPSenderValidation(t *testing.T) {
	if _, err := NewSMTPSender(config.SMTPConfig{Port: 587}); err == nil {
		t.Fatalf("expected error for missing host")
	}
	if _, err := NewSMTPSender(config.SMTPConfig{Host: "smtp.example.org"}); err == nil {
		t.Fatalf("expected error for zero port")
	}
}
