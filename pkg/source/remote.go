package source

import (
	"regexp"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/transport"

	"sourcepack/pkg/packerr"
)

var (
	schemePattern = regexp.MustCompile(`^([A-Za-z][A-Za-z0-9+.-]*)://`)
	// user@host:path, the form ssh remotes are usually written in.
	scpPattern = regexp.MustCompile(`^(?:[A-Za-z0-9._-]+@)?([A-Za-z0-9.-]+):([^\\/:][^:]*)$`)
)

var supportedSchemes = map[string]bool{
	"https": true,
	"http":  true,
	"ssh":   true,
	"git":   true,
	"file":  true,
}

// Remote is a parsed repository reference.
type Remote struct {
	URL      string
	Endpoint *transport.Endpoint
}

// ParseRemote validates s as a repository URL or scp-like reference.
func ParseRemote(s string) (*Remote, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, packerr.New(packerr.KindAcquisition, "repository reference is empty")
	}

	if m := schemePattern.FindStringSubmatch(s); m != nil {
		scheme := strings.ToLower(m[1])
		if !supportedSchemes[scheme] {
			return nil, packerr.Newf(packerr.KindAcquisition, "unsupported repository scheme %q", scheme).WithPath(s)
		}
		return endpoint(s, scheme != "file")
	}

	// A one-letter host is a Windows drive, not a remote.
	if m := scpPattern.FindStringSubmatch(s); m != nil && len(m[1]) > 1 {
		return endpoint(s, true)
	}

	return nil, packerr.New(packerr.KindAcquisition, "not a repository URL").WithPath(s)
}

func endpoint(s string, needHost bool) (*Remote, error) {
	ep, err := transport.NewEndpoint(s)
	if err != nil {
		return nil, packerr.Wrap(err, packerr.KindAcquisition, "malformed repository URL").WithPath(s)
	}
	if needHost && ep.Host == "" {
		return nil, packerr.New(packerr.KindAcquisition, "repository URL has no host").WithPath(s)
	}
	if strings.Trim(ep.Path, "/") == "" {
		return nil, packerr.New(packerr.KindAcquisition, "repository URL has no repository path").WithPath(s)
	}
	return &Remote{URL: s, Endpoint: ep}, nil
}

// IsHTTP reports whether the remote is fetched over http or https.
func (r *Remote) IsHTTP() bool {
	return r.Endpoint != nil && strings.HasPrefix(r.Endpoint.Protocol, "http")
}
