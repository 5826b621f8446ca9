package certs

import (
	"crypto/x509"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetOrCreateCertificate(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "certs")
	m := NewFileManager(dir, "ledger.local")

	cert, err := m.GetOrCreateCertificate()
	require.NoError(t, err)
	require.Len(t, cert.Certificate, 1)

	x509Cert, err := x509.ParseCertificate(cert.Certificate[0])
	require.NoError(t, err)
	assert.Equal(t, "Ledger API", x509Cert.Subject.Organization[0])
	assert.ElementsMatch(t, []string{"localhost", "ledger.local"}, x509Cert.DNSNames)
	assert.Len(t, x509Cert.IPAddresses, 2)
	assert.NoError(t, x509Cert.VerifyHostname("127.0.0.1"))

	info, err := os.Stat(m.KeyFile())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	again, err := m.GetOrCreateCertificate()
	require.NoError(t, err)
	assert.Equal(t, cert.Certificate[0], again.Certificate[0], "a valid pair is reused")
}

func TestRegeneratesUnusableCertificate(t *testing.T) {
	tests := []struct {
		setup func(t *testing.T, m *FileManager)
		name  string
	}{
		{
			name: "corrupt files",
			setup: func(t *testing.T, m *FileManager) {
				t.Helper()
				require.NoError(t, os.MkdirAll(filepath.Dir(m.CertFile()), 0o700))
				require.NoError(t, os.WriteFile(m.CertFile(), []byte("junk"), 0o600))
				require.NoError(t, os.WriteFile(m.KeyFile(), []byte("junk"), 0o600))
			},
		},
		{
			name: "expired",
			setup: func(t *testing.T, m *FileManager) {
				t.Helper()
				m.now = func() time.Time { return time.Now().Add(-2 * validFor) }
				_, err := m.GetOrCreateCertificate()
				require.NoError(t, err)
				m.now = time.Now
			},
		},
		{
			name: "missing host",
			setup: func(t *testing.T, m *FileManager) {
				t.Helper()
				_, err := NewFileManager(filepath.Dir(m.CertFile())).GetOrCreateCertificate()
				require.NoError(t, err)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewFileManager(t.TempDir(), "books.internal")
			tt.setup(t, m)

			cert, err := m.GetOrCreateCertificate()
			require.NoError(t, err)

			x509Cert, err := x509.ParseCertificate(cert.Certificate[0])
			require.NoError(t, err)
			assert.NoError(t, x509Cert.VerifyHostname("books.internal"))
			assert.True(t, time.Now().Before(x509Cert.NotAfter))
		})
	}
}

func TestTLSConfig(t *testing.T) {
	cfg, err := NewFileManager(t.TempDir()).TLSConfig()
	require.NoError(t, err)
	assert.Len(t, cfg.Certificates, 1)
	assert.NotZero(t, cfg.MinVersion)
}

func TestCertificateExists(t *testing.T) {
	m := NewFileManager(t.TempDir())

	exists, err := m.CertificateExists()
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = m.GetOrCreateCertificate()
	require.NoError(t, err)

	exists, err = m.CertificateExists()
	require.NoError(t, err)
	assert.True(t, exists)
}
