package object_store

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/rs/dnscache"
	"golang.org/x/sync/semaphore"
)

// awsHTTPClient returns the HTTP client shared by all S3 clients, created on first use
var awsHTTPClient = sync.OnceValue(func() *awshttp.BuildableClient {
	return newAwsHTTPClient(httpClientSettingsFromEnv())
})

type httpClientSettings struct {
	// dnsRefresh is how often cached DNS entries are refreshed, 0 disables the cache
	dnsRefresh time.Duration
	// maxParallelLookups bounds concurrent DNS lookups
	maxParallelLookups int64
	// maxConnsPerHost of 0 is unlimited
	maxConnsPerHost int
}

func httpClientSettingsFromEnv() httpClientSettings {
	return httpClientSettings{
		dnsRefresh:         time.Duration(envInt("BASIC_CLEANING_AWS_DNS_CACHE_REFRESH_SECS", 300)) * time.Second,
		maxParallelLookups: int64(envInt("BASIC_CLEANING_AWS_DNS_LOOKUP_MAX_PARALLEL", 25)),
		maxConnsPerHost:    envInt("BASIC_CLEANING_AWS_MAX_CONNS_PER_HOST", 0),
	}
}

func newAwsHTTPClient(settings httpClientSettings) *awshttp.BuildableClient {
	client := awshttp.NewBuildableClient().WithTransportOptions(func(tr *http.Transport) {
		tr.MaxConnsPerHost = settings.maxConnsPerHost
	})
	if settings.dnsRefresh <= 0 {
		return client
	}

	resolver := &dnscache.Resolver{}
	go func() {
		for range time.Tick(settings.dnsRefresh) {
			resolver.Refresh(true)
		}
	}()

	lookups := semaphore.NewWeighted(settings.maxParallelLookups)
	dialer := client.GetDialer()
	return client.WithTransportOptions(func(tr *http.Transport) {
		tr.DialContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
			host, port, err := net.SplitHostPort(addr)
			if err != nil {
				return nil, err
			}
			ips, err := lookupHost(ctx, resolver, lookups, host)
			if err != nil {
				return nil, err
			}
			if len(ips) == 0 {
				return nil, &net.DNSError{Err: "no addresses found", Name: host, IsNotFound: true}
			}
			var dialErrs []error
			for _, ip := range ips {
				conn, err := dialer.DialContext(ctx, network, net.JoinHostPort(ip, port))
				if err == nil {
					return conn, nil
				}
				dialErrs = append(dialErrs, err)
			}
			return nil, errors.Join(dialErrs...)
		}
	})
}

func lookupHost(ctx context.Context, resolver *dnscache.Resolver, lookups *semaphore.Weighted, host string) ([]string, error) {
	if err := lookups.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer lookups.Release(1)
	return resolver.LookupHost(ctx, host)
}

func envInt(name string, defaultValue int) int {
	if v, err := strconv.Atoi(os.Getenv(name)); err == nil {
		return v
	}
	return defaultValue
}
