package svn

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/albertocavalcante/svnstamp/pkg/buildstamp"
)

const projectXML = `<?xml version="1.0" encoding="UTF-8"?>
<info>
<entry
   kind="dir"
   path="project"
   revision="4">
<url>file:///repo/trunk/project</url>
<relative-url>^/trunk/project</relative-url>
<wc-info>
<wcroot-abspath>/work</wcroot-abspath>
<schedule>normal</schedule>
<depth>infinity</depth>
</wc-info>
<commit
   revision="4">
<author>alice</author>
<date>2023-03-03T12:00:00.000000Z</date>
</commit>
</entry>
<entry
   kind="file"
   path="project/A"
   revision="4">
<url>file:///repo/trunk/project/A</url>
<commit
   revision="2">
<author>bob</author>
<date>2020-01-01T08:30:00.250000Z</date>
</commit>
</entry>
<entry
   kind="file"
   path="project/B"
   revision="4">
<url>file:///repo/trunk/project/B</url>
<commit
   revision="3">
<author>alice</author>
<date>2021-06-15T00:00:00.000000Z</date>
</commit>
</entry>
<entry
   kind="file"
   path="project/pom.xml"
   revision="4">
<url>file:///repo/trunk/project/pom.xml</url>
<commit
   revision="4">
<author>alice</author>
<date>2023-03-03T12:00:00.000000Z</date>
</commit>
</entry>
<entry
   kind="file"
   path="project/NEW"
   revision="0">
<url>file:///repo/trunk/project/NEW</url>
<wc-info>
<schedule>add</schedule>
</wc-info>
</entry>
</info>
`

// TestHelperProcess stands in for the svn binary when re-executed by helperCommand.
func TestHelperProcess(t *testing.T) {
	if os.Getenv("SVNSTAMP_HELPER_PROCESS") != "1" {
		return
	}
	fmt.Fprint(os.Stdout, os.Getenv("SVNSTAMP_HELPER_STDOUT"))
	fmt.Fprint(os.Stderr, os.Getenv("SVNSTAMP_HELPER_STDERR"))
	code, _ := strconv.Atoi(os.Getenv("SVNSTAMP_HELPER_EXIT"))
	os.Exit(code)
}

type fakeSvn struct {
	stdout string
	stderr string
	exit   int
	calls  [][]string
}

func (f *fakeSvn) command(ctx context.Context, name string, args ...string) *exec.Cmd {
	f.calls = append(f.calls, append([]string{name}, args...))
	cmd := exec.CommandContext(ctx, os.Args[0], "-test.run=^TestHelperProcess$")
	cmd.Env = append(os.Environ(),
		"SVNSTAMP_HELPER_PROCESS=1",
		"SVNSTAMP_HELPER_STDOUT="+f.stdout,
		"SVNSTAMP_HELPER_STDERR="+f.stderr,
		"SVNSTAMP_HELPER_EXIT="+strconv.Itoa(f.exit),
	)
	return cmd
}

// newFakeClient returns a client whose svn binary is a placeholder file
// and whose commands run TestHelperProcess.
func newFakeClient(t *testing.T, f *fakeSvn, opts ...Option) *Client {
	t.Helper()
	bin := filepath.Join(t.TempDir(), "svn")
	if err := os.WriteFile(bin, []byte("fake"), 0o755); err != nil {
		t.Fatal(err)
	}
	opts = append([]Option{WithBinary(bin), WithCommandFunc(f.command)}, opts...)
	return New(opts...)
}

func collect(t *testing.T, seq func(func(buildstamp.FileInfo, error) bool)) ([]buildstamp.FileInfo, error) {
	t.Helper()
	var out []buildstamp.FileInfo
	for fi, err := range seq {
		if err != nil {
			return out, err
		}
		out = append(out, fi)
	}
	return out, nil
}

func TestDecoder(t *testing.T) {
	dec := newDecoder(strings.NewReader(projectXML))

	var paths []string
	for {
		e, err := dec.next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("next() error = %v", err)
		}
		paths = append(paths, e.Path)
	}

	want := []string{"project", "project/A", "project/B", "project/pom.xml", "project/NEW"}
	if !slices.Equal(paths, want) {
		t.Errorf("decoded paths = %v, want %v", paths, want)
	}
}

func TestDecoder_Malformed(t *testing.T) {
	dec := newDecoder(strings.NewReader(`<info><entry kind="file" path="a"><commit revision="x"></commit></entry></info>`))
	if _, err := dec.next(); err == nil {
		t.Error("next() expected error for non-numeric revision")
	}

	dec = newDecoder(strings.NewReader(`<info><entry kind="file" path="a">`))
	if _, err := dec.next(); err == nil {
		t.Error("next() expected error for truncated stream")
	}
}

func TestEntryFileInfo(t *testing.T) {
	tests := []struct {
		name    string
		entry   Entry
		want    buildstamp.FileInfo
		wantErr bool
	}{
		{
			name: "committed file",
			entry: Entry{Kind: "file", Path: "project/A", Revision: 4,
				Commit: &Commit{Revision: 2, Date: "2020-01-01T08:30:00.250000Z"}},
			want: buildstamp.FileInfo{Path: "project/A", Name: "A", Kind: buildstamp.KindFile,
				CommittedDate:     time.Date(2020, time.January, 1, 8, 30, 0, 250000000, time.UTC),
				CommittedRevision: 2},
		},
		{
			name:  "scheduled for addition",
			entry: Entry{Kind: "file", Path: "project/NEW"},
			want:  buildstamp.FileInfo{Path: "project/NEW", Name: "NEW", Kind: buildstamp.KindFile},
		},
		{
			name:  "commit without date",
			entry: Entry{Kind: "dir", Path: "project", Commit: &Commit{Revision: 9}},
			want:  buildstamp.FileInfo{Path: "project", Name: "project", Kind: buildstamp.KindDir, CommittedRevision: 9},
		},
		{
			name:    "bad date",
			entry:   Entry{Kind: "file", Path: "x", Commit: &Commit{Revision: 1, Date: "yesterday"}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.entry.fileInfo()
			if tt.wantErr {
				if err == nil {
					t.Error("fileInfo() expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("fileInfo() error = %v", err)
			}
			if got.Path != tt.want.Path || got.Name != tt.want.Name || got.Kind != tt.want.Kind {
				t.Errorf("fileInfo() = %+v, want %+v", got, tt.want)
			}
			if got.CommittedRevision != tt.want.CommittedRevision {
				t.Errorf("CommittedRevision = %d, want %d", got.CommittedRevision, tt.want.CommittedRevision)
			}
			if !got.CommittedDate.Equal(tt.want.CommittedDate) {
				t.Errorf("CommittedDate = %v, want %v", got.CommittedDate, tt.want.CommittedDate)
			}
		})
	}
}

func TestArgs(t *testing.T) {
	c := New(WithConfigDir("/etc/svn"), WithCredentials("ci", "secret"))
	got := c.Args("-weird", DepthInfinity)
	want := []string{"info", "--xml", "--non-interactive", "--depth", "infinity",
		"--config-dir", "/etc/svn", "--username", "ci", "--password", "secret", "--", "-weird"}
	if !slices.Equal(got, want) {
		t.Errorf("Args() = %v, want %v", got, want)
	}

	got = New().Args("project", DepthEmpty)
	want = []string{"info", "--xml", "--non-interactive", "--depth", "empty", "--", "project"}
	if !slices.Equal(got, want) {
		t.Errorf("Args() = %v, want %v", got, want)
	}
}

func TestArgs_CachedCredentials(t *testing.T) {
	c := New(WithConfigDir("/home/ci/.subversion"), WithCredentials("ci", ""))
	got := c.Args("project", DepthEmpty)
	if slices.Contains(got, "--password") {
		t.Errorf("Args() = %v, want no --password with an empty password", got)
	}
	want := []string{"info", "--xml", "--non-interactive", "--depth", "empty",
		"--config-dir", "/home/ci/.subversion", "--username", "ci", "--", "project"}
	if !slices.Equal(got, want) {
		t.Errorf("Args() = %v, want %v", got, want)
	}
}

func TestLookupBinary(t *testing.T) {
	dir := t.TempDir()
	bin := filepath.Join(dir, "svn")
	if err := os.WriteFile(bin, []byte("fake"), 0o755); err != nil {
		t.Fatal(err)
	}

	got, err := New(WithBinary(bin)).LookupBinary()
	if err != nil {
		t.Fatalf("LookupBinary() error = %v", err)
	}
	if got != bin {
		t.Errorf("LookupBinary() = %q, want %q", got, bin)
	}

	_, err = New(WithBinary(filepath.Join(dir, "missing"))).LookupBinary()
	if !errors.Is(err, ErrSvnNotFound) {
		t.Errorf("LookupBinary() error = %v, want ErrSvnNotFound", err)
	}

	_, err = New(WithBinary("svnstamp-no-such-binary")).LookupBinary()
	if !errors.Is(err, ErrSvnNotFound) {
		t.Errorf("LookupBinary() error = %v, want ErrSvnNotFound", err)
	}
}

func TestWalk(t *testing.T) {
	f := &fakeSvn{stdout: projectXML}
	c := newFakeClient(t, f)

	entries, err := collect(t, c.Walk(context.Background(), "project"))
	if err != nil {
		t.Fatalf("Walk() error = %v", err)
	}
	if len(entries) != 5 {
		t.Fatalf("Walk() yielded %d entries, want 5", len(entries))
	}
	if entries[3].Name != "pom.xml" || entries[3].CommittedRevision != 4 {
		t.Errorf("entries[3] = %+v, want pom.xml at r4", entries[3])
	}
	if entries[4].HasCommit() {
		t.Error("added entry should have no commit date")
	}

	if len(f.calls) != 1 {
		t.Fatalf("svn invoked %d times, want 1", len(f.calls))
	}
	if !slices.Contains(f.calls[0], DepthInfinity) {
		t.Errorf("Walk args = %v, want depth infinity", f.calls[0])
	}
}

func TestInfo(t *testing.T) {
	f := &fakeSvn{stdout: projectXML}
	c := newFakeClient(t, f)

	if _, err := collect(t, c.Info(context.Background(), "project")); err != nil {
		t.Fatalf("Info() error = %v", err)
	}
	if !slices.Contains(f.calls[0], DepthEmpty) {
		t.Errorf("Info args = %v, want depth empty", f.calls[0])
	}
}

func TestWalk_NotWorkingCopy(t *testing.T) {
	f := &fakeSvn{
		stdout: `<?xml version="1.0" encoding="UTF-8"?>` + "\n<info>\n",
		stderr: "svn: warning: W155007: '/tmp/x' is not a working copy\nsvn: E200009: Could not display info for all targets because some targets don't exist\n",
		exit:   1,
	}
	c := newFakeClient(t, f)

	_, err := collect(t, c.Walk(context.Background(), "/tmp/x"))
	if err == nil {
		t.Fatal("Walk() expected error")
	}

	var cmdErr *CommandError
	if !errors.As(err, &cmdErr) {
		t.Fatalf("error type = %T, want *CommandError", err)
	}
	if !strings.Contains(cmdErr.Error(), "W155007") {
		t.Errorf("error should carry svn stderr, got %q", cmdErr.Error())
	}

	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		t.Errorf("error should wrap the exit status, got %v", err)
	}
}

func TestWalk_FailsAfterEntries(t *testing.T) {
	// svn reports the entries it could read, then fails.
	partial := strings.TrimSuffix(projectXML, "</info>\n")
	f := &fakeSvn{stdout: partial, stderr: "svn: E170013: connection lost", exit: 1}
	c := newFakeClient(t, f)

	entries, err := collect(t, c.Walk(context.Background(), "project"))
	if err == nil {
		t.Fatal("Walk() expected error")
	}
	if len(entries) != 5 {
		t.Errorf("Walk() yielded %d entries before failing, want 5", len(entries))
	}
	if !strings.Contains(err.Error(), "E170013") {
		t.Errorf("error = %q, want svn stderr", err.Error())
	}
}

func TestWalk_MissingBinary(t *testing.T) {
	f := &fakeSvn{stdout: projectXML}
	c := New(WithBinary(filepath.Join(t.TempDir(), "svn")), WithCommandFunc(f.command))

	_, err := collect(t, c.Walk(context.Background(), "project"))
	if !errors.Is(err, ErrSvnNotFound) {
		t.Errorf("Walk() error = %v, want ErrSvnNotFound", err)
	}
	if len(f.calls) != 0 {
		t.Error("svn should not run when the binary is missing")
	}
}

func TestWalk_EarlyStop(t *testing.T) {
	f := &fakeSvn{stdout: projectXML}
	c := newFakeClient(t, f)

	n := 0
	for _, err := range c.Walk(context.Background(), "project") {
		if err != nil {
			t.Fatalf("Walk() error = %v", err)
		}
		n++
		if n == 2 {
			break
		}
	}
	if n != 2 {
		t.Errorf("consumed %d entries, want 2", n)
	}
}

func TestResolverWithClient(t *testing.T) {
	f := &fakeSvn{stdout: projectXML}
	r := buildstamp.NewResolver(newFakeClient(t, f))

	got, ok, err := r.LatestCommitTimestamp(context.Background(), "project", "pom.xml\nproject")
	if err != nil {
		t.Fatalf("LatestCommitTimestamp() error = %v", err)
	}
	want := time.Date(2021, time.June, 15, 0, 0, 0, 0, time.UTC)
	if !ok || !got.Equal(want) {
		t.Errorf("LatestCommitTimestamp() = %v, %v; want %v", got, ok, want)
	}

	shallow := &fakeSvn{stdout: `<?xml version="1.0" encoding="UTF-8"?>
<info>
<entry kind="dir" path="project" revision="57">
<commit revision="42"><author>alice</author><date>2023-03-03T12:00:00.000000Z</date></commit>
</entry>
</info>
`}
	r = buildstamp.NewResolver(newFakeClient(t, shallow))
	rev, err := r.Revision(context.Background(), "project", "pom.xml")
	if err != nil {
		t.Fatalf("Revision() error = %v", err)
	}
	if rev != "42" {
		t.Errorf("Revision() = %q, want %q", rev, "42")
	}
}

func TestWalk_RelativePathResolved(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	want, err := filepath.Abs(".")
	if err != nil {
		t.Fatal(err)
	}

	f := &fakeSvn{stdout: projectXML}
	c := newFakeClient(t, f)
	if _, err := collect(t, c.Walk(context.Background(), ".")); err != nil {
		t.Fatalf("Walk() error = %v", err)
	}

	args := f.calls[0]
	if got := args[len(args)-1]; got != want {
		t.Errorf("svn queried %q, want absolute %q", got, want)
	}

	// svn echoes the queried path, so the root entry is named after the directory.
	fi, err := (&Entry{Kind: "dir", Path: want}).fileInfo()
	if err != nil {
		t.Fatal(err)
	}
	if fi.Name != filepath.Base(dir) {
		t.Errorf("root entry name = %q, want %q", fi.Name, filepath.Base(dir))
	}
}
