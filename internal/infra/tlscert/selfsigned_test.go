package tlscert

import (
	"crypto/tls"
	"path/filepath"
	"testing"
	"time"
)

func TestSelfSigned(t *testing.T) {
	certPEM, keyPEM, err := SelfSigned(time.Hour, "a.example", "127.0.0.1")
	if err != nil {
		t.Fatalf("SelfSigned() error = %v", err)
	}

	cert, err := tls.X509KeyPair(certPEM, keyPEM)
	if err != nil {
		t.Fatalf("X509KeyPair() error = %v", err)
	}

	kp := NewStaticKeyPair(cert)
	leaf, err := kp.Leaf()
	if err != nil {
		t.Fatalf("Leaf() error = %v", err)
	}
	if leaf.Subject.CommonName != "a.example" {
		t.Errorf("CommonName = %q, want a.example", leaf.Subject.CommonName)
	}
	if len(leaf.DNSNames) != 1 || leaf.DNSNames[0] != "a.example" {
		t.Errorf("DNSNames = %v, want [a.example]", leaf.DNSNames)
	}
	if len(leaf.IPAddresses) != 1 || leaf.IPAddresses[0].String() != "127.0.0.1" {
		t.Errorf("IPAddresses = %v, want [127.0.0.1]", leaf.IPAddresses)
	}
	if err := leaf.VerifyHostname("a.example"); err != nil {
		t.Errorf("VerifyHostname() error = %v", err)
	}
}

func TestSelfSigned_NoHosts(t *testing.T) {
	if _, _, err := SelfSigned(time.Hour); err == nil {
		t.Error("SelfSigned() expected error without hosts")
	}
}

func TestWriteSelfSigned(t *testing.T) {
	dir := t.TempDir()
	certFile := filepath.Join(dir, "a.crt")
	keyFile := filepath.Join(dir, "a.key")

	if err := WriteSelfSigned(certFile, keyFile, time.Hour, "a.example"); err != nil {
		t.Fatalf("WriteSelfSigned() error = %v", err)
	}
	if _, err := tls.LoadX509KeyPair(certFile, keyFile); err != nil {
		t.Errorf("LoadX509KeyPair() error = %v", err)
	}
}
