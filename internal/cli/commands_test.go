package cli_test

import (
	"encoding/json"
	"os"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/calvinalkan/taskcache/internal/cli"
	"github.com/calvinalkan/taskcache/pkg/taskcache"
)

// firstID returns the ID at the start of a task line.
func firstID(t *testing.T, line string) string {
	t.Helper()

	id, _, ok := strings.Cut(line, " ")
	if !ok {
		t.Fatalf("no task line: %q", line)
	}

	return id
}

func lines(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	return strings.Split(s, "\n")
}

func Test_Add_Then_Ls_Shows_Task_When_Created(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	title := uuid.NewString()

	out := c.MustRun("add", "-t", title, "--note", "buy oat milk", "--tag", "home, errands", "--due", "2026-04-01", "-p", "high")
	cli.AssertContains(t, out, "[ ] "+title)

	ls := c.MustRun("ls")
	cli.AssertContains(t, ls, title)
	cli.AssertContains(t, ls, "duedate=2026-04-01")
	cli.AssertContains(t, ls, "priority=high")
	cli.AssertContains(t, ls, "tag=home,errands")
	cli.AssertContains(t, ls, `note="buy oat milk"`)

	if _, err := os.Stat(c.CachePath()); err != nil {
		t.Fatalf("cache file not written: %v", err)
	}
}

func Test_Add_Fails_When_Title_Missing_Or_Enum_Invalid(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)

	cli.AssertContains(t, c.MustFail("add", "--note", "x"), "--title is required")
	cli.AssertContains(t, c.MustFail("add", "-t", "x", "-p", "urgent"), "invalid value for priority")
	cli.AssertContains(t, c.MustFail("add", "-t", "x", "--due", "tomorrow"), "invalid date")
}

func Test_Edit_Changes_Only_Given_Fields(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	id := firstID(t, c.MustRun("add", "-t", "first", "--meta", "keep me"))

	out := c.MustRun("edit", id, "--note", "added", "--status", "next-action")
	cli.AssertContains(t, out, "status=next-action")

	ls := c.MustRun("ls", "--id", id)
	cli.AssertContains(t, ls, `meta="keep me"`)
	cli.AssertContains(t, ls, `note="added"`)
	cli.AssertContains(t, ls, "first")

	cli.AssertContains(t, c.MustFail("edit", id), "no fields to change")
	cli.AssertContains(t, c.MustFail("edit", "999", "--note", "x"), "task not found")
}

func Test_Done_Completes_And_Edit_Reopens(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	id := firstID(t, c.MustRun("add", "-t", "chore"))

	out := c.MustRun("done", id, "--date", "2026-03-05")
	cli.AssertContains(t, out, "[x] chore")
	cli.AssertContains(t, out, "completed=2026-03-05")

	cli.AssertContains(t, c.MustRun("ls", "--completion", "complete"), "chore")
	cli.AssertNotContains(t, c.MustRun("ls", "--completion", "incomplete"), "chore")

	c.MustRun("edit", id, "--reopen")
	cli.AssertContains(t, c.MustRun("ls", "--completion", "incomplete"), "[ ] chore")
}

func Test_Done_Reschedule_Keeps_Repeating_Task_Open_And_Adds_Completed_Copy(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	title := uuid.NewString()
	id := firstID(t, c.MustRun("add", "-t", title, "--repeat", "WEEKLY", "--due", "2026-03-02"))

	out := c.MustRun("done", id, "--reschedule", "--date", "2026-03-02")
	cli.AssertContains(t, out, id+" [ ] "+title)
	cli.AssertContains(t, out, "duedate=2026-03-09")

	got := lines(c.MustRun("ls"))
	if len(got) != 2 {
		t.Fatalf("ls lines=%d, want=2\n%s", len(got), strings.Join(got, "\n"))
	}

	cli.AssertContains(t, got[1], "[x] "+title)
}

func Test_Rm_Deletes_And_Deleted_Lists_Notice(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	keep := firstID(t, c.MustRun("add", "-t", "keep"))
	drop := firstID(t, c.MustRun("add", "-t", "drop"))

	cli.AssertContains(t, c.MustRun("rm", drop), "deleted "+drop)

	ls := c.MustRun("ls")
	cli.AssertContains(t, ls, keep+" [ ] keep")
	cli.AssertNotContains(t, ls, "drop")

	cli.AssertContains(t, c.MustRun("deleted"), drop+" ")

	cli.AssertContains(t, c.MustFail("rm"), "task ID is required")
	cli.AssertContains(t, c.MustFail("rm", "abc"), "invalid task ID")
}

func Test_Ls_Filters_Fields_And_Prints_JSON(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	c.MustRun("add", "-t", "json me", "--note", "n", "--star")

	out := c.MustRun("ls", "--json", "--fields", "star")

	var task taskcache.Task

	err := json.Unmarshal([]byte(out), &task)
	if err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}

	if task.Star == nil || !*task.Star {
		t.Errorf("star=%v, want true", task.Star)
	}

	if task.Note != nil {
		t.Errorf("note=%q, want unset", *task.Note)
	}

	bare := c.MustRun("ls", "--fields", "")
	cli.AssertNotContains(t, bare, "|")
}

func Test_Ls_Fails_When_Field_Not_Cached_Or_Completion_Conflicts(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	c.WriteFile(".tdcache.json", `{"completion": "incomplete", "fields": "note"}`)

	cli.AssertContains(t, c.MustFail("ls", "--fields", "star"), "field not in cache")
	cli.AssertContains(t, c.MustFail("ls", "--completion", "complete"), "configuration conflict")
	cli.AssertContains(t, c.MustFail("ls", "--fields", "shoe"), "unsupported field")
}

func Test_Ls_Warns_When_ID_Not_Found(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	_, stderr, exitCode := c.Run("ls", "--id", "41")

	if got, want := exitCode, 1; got != want {
		t.Errorf("exitCode=%d, want=%d", got, want)
	}

	cli.AssertContains(t, stderr, "warning: no matching task")
}

func Test_Reopen_With_Wider_Config_Fails_And_Narrower_Succeeds(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	c.MustRun("--completion", "incomplete", "--fields", "note,star", "add", "-t", "narrow")

	cli.AssertContains(t, c.MustFail("--completion", "any", "ls"), "configuration conflict")
	cli.AssertContains(t, c.MustFail("--completion", "incomplete", "--fields", "note,star,meta", "ls"), "configuration conflict")

	out := c.MustRun("--completion", "incomplete", "--fields", "note", "ls")
	cli.AssertContains(t, out, "narrow")

	cli.AssertContains(t, c.MustFail("--completion", "incomplete", "--fields", "note,star", "ls"), "configuration conflict")
}

func Test_Reset_Removes_Cache_And_Next_Command_Rebuilds_It(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	c.MustRun("--completion", "incomplete", "add", "-t", "survivor")

	cli.AssertContains(t, c.MustRun("reset"), "removed "+c.CachePath())

	if _, err := os.Stat(c.CachePath()); !os.IsNotExist(err) {
		t.Fatalf("cache file still present: %v", err)
	}

	// The remote keeps the task; a fresh cache with a different filter is fine.
	cli.AssertContains(t, c.MustRun("--completion", "any", "ls"), "survivor")

	c.MustRun("reset")

	_, stderr, exitCode := c.Run("reset")
	if got, want := exitCode, 1; got != want {
		t.Errorf("exitCode=%d, want=%d", got, want)
	}

	cli.AssertContains(t, stderr, "warning: no cache file")
}

func Test_Account_Reports_Cache_Watermarks(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	c.MustRun("add", "-t", "a")

	out := c.MustRun("account")
	cli.AssertContains(t, out, "last_edit=")
	cli.AssertContains(t, out, "last_delete=1970-01-02T00:00:00Z")
	cli.AssertContains(t, out, "tasks=1")
}

func Test_Sync_Reports_Counts(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	c.MustRun("add", "-t", "a")

	cli.AssertContains(t, c.MustRun("sync"), "synced: 1 tasks")
}

func Test_Shell_Runs_Script_From_Stdin(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)

	script := strings.Join([]string{
		"# comment",
		`add -t "shell task" --note 'with spaces'`,
		"ls",
		"bogus",
		"exit",
		"add -t never",
	}, "\n")

	stdout, stderr, exitCode := c.RunWithInput(script, "shell")

	if got, want := exitCode, 1; got != want {
		t.Errorf("exitCode=%d, want=%d", got, want)
	}

	cli.AssertContains(t, stdout, "[ ] shell task")
	cli.AssertContains(t, stdout, `note="with spaces"`)
	cli.AssertContains(t, stderr, "unknown command: bogus")
	cli.AssertContains(t, stderr, "1 command(s) failed")
	cli.AssertNotContains(t, c.MustRun("ls"), "never")
}

func Test_Log_File_Receives_Records_When_Configured(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	c.MustRun("--log-file", "tdcache.log", "--log-level", "info", "add", "-t", "logged")

	data, err := os.ReadFile(c.Dir + "/tdcache.log")
	if err != nil {
		t.Fatalf("read log: %v", err)
	}

	cli.AssertContains(t, string(data), `"msg":"added tasks"`)
	cli.AssertContains(t, string(data), `"msg":"creating cache"`)
}
