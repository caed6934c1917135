package engine

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/octobees/orgscout/internal/config"
	"github.com/octobees/orgscout/internal/enrich"
	"github.com/octobees/orgscout/internal/entity"
	"github.com/octobees/orgscout/internal/fetch"
	"github.com/octobees/orgscout/internal/jobs"
)

type memorySaver struct {
	mu      sync.Mutex
	entries []*entity.OrganizationEntry
	fail    bool
}

func (s *memorySaver) SaveOrganization(_ context.Context, e *entity.OrganizationEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return fmt.Errorf("storage down")
	}
	s.entries = append(s.entries, e)
	return nil
}

func fastEngine(saver Saver) (*Engine, *jobs.Registry) {
	cfg := config.ScraperConfig{DelayMS: 1, BackoffMS: 1, MaxPages: 6, KeepIncomplete: true}
	client := fetch.New(cfg)
	registry := jobs.NewRegistry(time.Hour)
	enricher := enrich.New(client, client, client)
	return New(cfg, client, enricher, nil, registry, saver, nil), registry
}

// directorySite serves a one-page directory of three organizations, each
// with its own site carrying an email.
func directorySite(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	var srv *httptest.Server
	mux.HandleFunc("/dir/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `<html><body><ul>
			<li><a href="%[1]s/org/alpha">Alpha Legal Services</a><p>Company registration and visas in Bangkok.</p></li>
			<li><a href="%[1]s/org/beta">Beta Translation Bureau</a><p>Certified translations.</p></li>
			<li><a href="%[1]s/org/gamma">Gamma Expat Club</a><p>Community events and meetups.</p></li>
		</ul></body></html>`, srv.URL)
	})
	mux.HandleFunc("/org/alpha", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body>Write to info@alpha.example or call 02-123-4567</body></html>`)
	})
	mux.HandleFunc("/org/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body>Welcome</body></html>`)
	})
	srv = httptest.NewServer(mux)
	return srv
}

func TestRunEndToEnd(t *testing.T) {
	srv := directorySite(t)
	defer srv.Close()

	saver := &memorySaver{}
	en, registry := fastEngine(saver)
	jobID, stop := registry.Create()

	summary := en.Run(context.Background(), jobID, stop, RunRequest{
		Profession: "lawyer",
		Country:    "Thailand",
		Language:   "en",
		Sources: []entity.SourceDescriptor{{
			Name:       "test directory",
			DirectURLs: []string{srv.URL + "/dir/"},
		}},
	})

	if summary.RawParsed != 3 {
		t.Fatalf("raw parsed = %d, want 3", summary.RawParsed)
	}
	if summary.Accepted != 3 {
		t.Fatalf("accepted = %d, want 3 (summary %+v)", summary.Accepted, summary)
	}
	if summary.Duplicates != 0 {
		t.Errorf("duplicates = %d, want 0", summary.Duplicates)
	}

	var alpha *entity.OrganizationEntry
	for _, e := range saver.entries {
		if strings.HasPrefix(e.Name, "Alpha") {
			alpha = e
		}
	}
	if alpha == nil {
		t.Fatal("alpha entry not saved")
	}
	if alpha.Email != "info@alpha.example" {
		t.Errorf("alpha email = %q", alpha.Email)
	}
	if alpha.Phone != "+6621234567" {
		t.Errorf("alpha phone = %q", alpha.Phone)
	}
	if alpha.QualityScore == 0 {
		t.Error("final score not computed")
	}
	if alpha.RunID == nil || *alpha.RunID != jobID {
		t.Error("run id not stamped")
	}

	job, err := registry.Get(jobID)
	if err != nil {
		t.Fatalf("job lookup: %v", err)
	}
	if job.State != entity.RunDone {
		t.Errorf("job state = %q, want done", job.State)
	}
}

// tablePhonesSite serves a one-page table directory whose phone cells hold
// local formats that must reach storage in E.164.
func tablePhonesSite(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><table>
			<tr><th>Nom</th><th>Site web</th><th>Téléphone</th></tr>
			<tr><td>Delta Dental Clinic</td><td><a href="https://delta.example">delta</a></td><td>02-123-4567</td></tr>
			<tr><td>Epsilon Law Office</td><td><a href="https://epsilon.example">epsilon</a></td><td>081 234 5678</td></tr>
		</table></body></html>`)
	}))
}

func TestRunNormalizesTablePhones(t *testing.T) {
	srv := tablePhonesSite(t)
	defer srv.Close()

	saver := &memorySaver{}
	en, registry := fastEngine(saver)
	jobID, stop := registry.Create()

	summary := en.Run(context.Background(), jobID, stop, RunRequest{
		Profession: "dentist",
		Country:    "Thailand",
		Sources: []entity.SourceDescriptor{{
			Name:       "table directory",
			DirectURLs: []string{srv.URL + "/dir/"},
		}},
	})
	if summary.Accepted != 2 {
		t.Fatalf("accepted = %d, want 2 (summary %+v)", summary.Accepted, summary)
	}

	phones := map[string]string{}
	for _, e := range saver.entries {
		phones[e.Name] = e.Phone
	}
	if phones["Delta Dental Clinic"] != "+6621234567" {
		t.Errorf("delta phone = %q, want +6621234567", phones["Delta Dental Clinic"])
	}
	if phones["Epsilon Law Office"] != "+66812345678" {
		t.Errorf("epsilon phone = %q, want +66812345678", phones["Epsilon Law Office"])
	}
}

type capturingDiscoverer struct {
	seedQueries []string
	urls        []string
}

func (d *capturingDiscoverer) Discover(_ context.Context, _, _, _, _ string, seedQueries []string) []string {
	d.seedQueries = seedQueries
	return d.urls
}

func TestRunHandsSeedQueriesToDiscovery(t *testing.T) {
	srv := directorySite(t)
	defer srv.Close()

	saver := &memorySaver{}
	cfg := config.ScraperConfig{DelayMS: 1, BackoffMS: 1, MaxPages: 6, KeepIncomplete: true}
	client := fetch.New(cfg)
	registry := jobs.NewRegistry(time.Hour)
	disc := &capturingDiscoverer{urls: []string{srv.URL + "/dir/"}}
	en := New(cfg, client, enrich.New(client, client, client), disc, registry, saver, nil)
	jobID, stop := registry.Create()

	// A generic profession outside Thailand has queries but no seed sites,
	// so the run must go through discovery.
	summary := en.Run(context.Background(), jobID, stop, RunRequest{
		Profession: "plumber",
		Country:    "France",
		Language:   "en",
	})
	if len(disc.seedQueries) == 0 {
		t.Fatal("discovery received no seed queries")
	}
	if summary.RawParsed == 0 {
		t.Fatalf("discovered source not parsed (summary %+v)", summary)
	}
}

func TestRunFailsWithoutSources(t *testing.T) {
	saver := &memorySaver{}
	en, registry := fastEngine(saver)
	jobID, stop := registry.Create()

	en.Run(context.Background(), jobID, stop, RunRequest{
		Profession: "astronaut",
		Country:    "Atlantis",
		Sources:    []entity.SourceDescriptor{{Name: "empty"}},
	})

	job, _ := registry.Get(jobID)
	if job.State != entity.RunFailed {
		t.Fatalf("state = %q, want failed", job.State)
	}
}

func TestRunStopsCooperatively(t *testing.T) {
	srv := directorySite(t)
	defer srv.Close()

	saver := &memorySaver{}
	en, registry := fastEngine(saver)
	jobID, stop := registry.Create()
	registry.Stop(jobID)

	summary := en.Run(context.Background(), jobID, stop, RunRequest{
		Profession: "lawyer",
		Country:    "Thailand",
		Sources: []entity.SourceDescriptor{{
			Name:       "test directory",
			DirectURLs: []string{srv.URL + "/dir/"},
		}},
	})
	if summary.PagesFetched != 0 {
		t.Fatalf("pages fetched after stop = %d", summary.PagesFetched)
	}
	job, _ := registry.Get(jobID)
	if job.State != entity.RunDone {
		t.Errorf("stopped run should still finish with partial results, state = %q", job.State)
	}
}

func TestRunCountsSaveFailures(t *testing.T) {
	srv := directorySite(t)
	defer srv.Close()

	saver := &memorySaver{fail: true}
	en, registry := fastEngine(saver)
	jobID, stop := registry.Create()

	summary := en.Run(context.Background(), jobID, stop, RunRequest{
		Profession: "lawyer",
		Country:    "Thailand",
		Sources: []entity.SourceDescriptor{{
			Name:       "test directory",
			DirectURLs: []string{srv.URL + "/dir/"},
		}},
	})
	if summary.SaveFailures != summary.Accepted || summary.SaveFailures == 0 {
		t.Fatalf("save failures = %d, accepted = %d", summary.SaveFailures, summary.Accepted)
	}
	job, _ := registry.Get(jobID)
	if job.State != entity.RunDone {
		t.Errorf("save failures must not fail the run, state = %q", job.State)
	}
}

func TestPaginationStopsOnNotFound(t *testing.T) {
	var mu sync.Mutex
	pagesServed := map[string]int{}
	mux := http.NewServeMux()
	mux.HandleFunc("/cat-1/", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		pagesServed[r.URL.Path]++
		mu.Unlock()
		switch r.URL.Path {
		case "/cat-1/1/index.html", "/cat-1/2/index.html":
			fmt.Fprint(w, `<html><body><ul>
				<li><a href="https://a.example">One Organization</a></li>
				<li><a href="https://b.example">Two Organization</a></li>
				<li><a href="https://c.example">Three Organization</a></li>
			</ul></body></html>`)
		default:
			http.NotFound(w, r)
		}
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	saver := &memorySaver{}
	en, registry := fastEngine(saver)
	jobID, stop := registry.Create()

	summary := en.Run(context.Background(), jobID, stop, RunRequest{
		Profession: "lawyer",
		Country:    "Thailand",
		Sources: []entity.SourceDescriptor{{
			Name: "paginated",
			Categories: []entity.SourceCategory{
				{Name: "services", URL: srv.URL + "/cat-1/"},
			},
		}},
	})

	if summary.PagesFetched != 2 {
		t.Fatalf("pages fetched = %d, want 2", summary.PagesFetched)
	}
	mu.Lock()
	defer mu.Unlock()
	if pagesServed["/cat-1/4/index.html"] != 0 {
		t.Fatal("pagination continued past 404")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		e    entity.OrganizationEntry
		keep bool
		want bool
	}{
		{"short name", entity.OrganizationEntry{Name: "A"}, true, false},
		{"contact method", entity.OrganizationEntry{Name: "Org", Email: "a@b.c"}, false, true},
		{"long description", entity.OrganizationEntry{Name: "Org", Description: "a real description"}, false, true},
		{"bare but kept", entity.OrganizationEntry{Name: "Org"}, true, true},
		{"bare and dropped", entity.OrganizationEntry{Name: "Org"}, false, false},
	}
	for _, tt := range tests {
		if got := Validate(&tt.e, 0, tt.keep); got != tt.want {
			t.Errorf("%s: Validate = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestFinalScoreMonotone(t *testing.T) {
	e := &entity.OrganizationEntry{Name: "Org", QualityScore: 5}
	before := FinalScore(e)
	e.Email = "a@b.c"
	e.Phone = "+6621234567"
	after := FinalScore(e)
	if after < before {
		t.Fatalf("score decreased: %d -> %d", before, after)
	}
	e.Facebook = "https://facebook.com/org"
	e.LineID = "orgline"
	if got := FinalScore(e); got > 10 {
		t.Fatalf("score above cap: %d", got)
	}
}
