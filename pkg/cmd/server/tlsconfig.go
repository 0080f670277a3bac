package server

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/mpapenbr/f1-driverstats-go/log"
	"github.com/mpapenbr/f1-driverstats-go/pkg/config"
)

type certs struct {
	ctx      context.Context
	log      *log.Logger
	certFile string
	keyFile  string
	cert     *tls.Certificate
	mu       sync.RWMutex
}

// NewTLSConfigProvider returns a tls.Config which serves the configured key pair.
// The pair is reloaded whenever one of the files changes.
func NewTLSConfigProvider(ctx context.Context) (*tls.Config, error) {
	if config.TLSCertFile == "" || config.TLSKeyFile == "" {
		return nil, errors.New("tls-cert and tls-key are required for the TLS listener")
	}
	c := &certs{
		ctx:      ctx,
		log:      log.GetFromContext(ctx).Named("certs"),
		certFile: config.TLSCertFile,
		keyFile:  config.TLSKeyFile,
	}
	if err := c.loadCert(); err != nil {
		return nil, err
	}
	tlsConfig := &tls.Config{
		GetCertificate: c.getCertificate,
		MinVersion:     tls.VersionTLS13,
	}
	if config.TLSCAFile != "" {
		c.log.Info("Loading ca cert", log.String("file", config.TLSCAFile))
		caCert, err := os.ReadFile(config.TLSCAFile)
		if err != nil {
			return nil, fmt.Errorf("could not read TLS root CA: %w", err)
		}
		caCertPool := x509.NewCertPool()
		if ok := caCertPool.AppendCertsFromPEM(caCert); !ok {
			return nil, errors.New("could not append cert to pool")
		}
		tlsConfig.ClientCAs = caCertPool
		tlsConfig.ClientAuth = tls.VerifyClientCertIfGiven
	}
	go c.watchAndReloadCerts()
	return tlsConfig, nil
}

func (c *certs) getCertificate(*tls.ClientHelloInfo) (*tls.Certificate, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cert, nil
}

func (c *certs) watchAndReloadCerts() {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		c.log.Error("could not create fsnotify watcher", log.ErrorField(err))
		return
	}
	defer watcher.Close()
	for _, f := range []string{c.certFile, c.keyFile} {
		if err := watcher.Add(f); err != nil {
			c.log.Error("could not watch file", log.String("file", f), log.ErrorField(err))
		}
	}
	for {
		select {
		case <-c.ctx.Done():
			c.log.Info("context done, stopping cert reload")
			return
		case event, ok := <-watcher.Events:
			if !ok {
				c.log.Info("watcher events channel closed, stopping cert reload")
				return
			}
			c.log.Debug("change detected",
				log.String("file", event.Name), log.Any("event", event))
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Chmod) {
				c.log.Info("cert file changed, reloading cert",
					log.String("file", event.Name))
				if err := c.loadCert(); err != nil {
					c.log.Error("could not load TLS key pair", log.ErrorField(err))
				}
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				c.log.Info("watcher errors channel closed, stopping cert reload")
				return
			}
			c.log.Error("watcher error", log.ErrorField(err))
		}
	}
}

// loadCert keeps the previous certificate if the new pair cannot be loaded.
func (c *certs) loadCert() error {
	c.log.Info("Loading cert",
		log.String("key", c.keyFile),
		log.String("cert", c.certFile))
	cert, err := tls.LoadX509KeyPair(c.certFile, c.keyFile)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cert = &cert
	return nil
}
