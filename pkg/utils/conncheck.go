package utils

import (
	"context"
	"fmt"
	"net"
	"regexp"
	"time"

	"github.com/mpapenbr/f1-driverstats-go/log"
)

var (
	dbURLRegex   = regexp.MustCompile("^postgres(ql)?://(.*@)?(?P<addr>(?P<host>[^/:?]*?)(:(?P<port>\\d+))?)(/.*)?$")
	natsURLRegex = regexp.MustCompile("^(?P<proto>nats|tls)://(.*@)?(?P<addr>(?P<host>[^/:,]*?)(:(?P<port>\\d+))?)([/,].*)?$")
)

// WaitForTCP polls addr until a connection can be established or timeout is reached.
func WaitForTCP(ctx context.Context, addr string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	start := time.Now()
	log.Debug("wait for tcp connection",
		log.String("addr", addr),
		log.String("timeout", timeout.String()))
	var d net.Dialer
	for {
		conn, err := d.DialContext(ctx, "tcp", addr)
		if err == nil {
			conn.Close()

			log.Debug("tcp connection successful",
				log.String("addr", addr),
				log.String("duration", time.Since(start).String()))
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("%s could not be reached after %v", addr, timeout)
		case <-time.After(200 * time.Millisecond):
		}
	}
}

// ExtractFromDBURL returns host:port of a postgres connection url.
func ExtractFromDBURL(url string) string {
	param := resolveRegex(dbURLRegex, url)
	if len(param) == 0 {
		return ""
	}
	if port := param["port"]; port != "" {
		return param["addr"] // if port is found, the addr contains our wanted value
	}
	return fmt.Sprintf("%s:5432", param["host"])
}

// ExtractFromNatsURL returns host:port of the first server of a NATS url.
func ExtractFromNatsURL(url string) string {
	param := resolveRegex(natsURLRegex, url)
	if len(param) == 0 {
		return ""
	}
	if port := param["port"]; port != "" {
		return param["addr"]
	}
	return fmt.Sprintf("%s:4222", param["host"])
}

func resolveRegex(compRegEx *regexp.Regexp, url string) (paramsMap map[string]string) {
	match := compRegEx.FindStringSubmatch(url)
	if match == nil {
		return nil
	}
	paramsMap = make(map[string]string)
	for i, name := range compRegEx.SubexpNames() {
		if i > 0 && name != "" {
			paramsMap[name] = match[i]
		}
	}
	return paramsMap
}
