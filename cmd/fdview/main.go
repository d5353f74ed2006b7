package main

import (
	"flag"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/hostkit/reskit/cred"
	"github.com/hostkit/reskit/deferclose"
	"github.com/hostkit/reskit/fdtable"
	"github.com/hostkit/reskit/file"
	"github.com/hostkit/reskit/kobj"
	"github.com/hostkit/reskit/poll"
	"github.com/hostkit/reskit/task"
)

func main() {
	var (
		maxFds      = flag.Int("fds", fdtable.DefaultMaxFds, "Descriptor table capacity")
		uid         = flag.Uint("uid", 1000, "Effective uid of the simulated task")
		verbose     = flag.Bool("v", false, "Enable debug logging")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
	)
	flag.Parse()

	if *verbose {
		logger, err := zap.NewDevelopment()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fdtable.SetLogger(logger)
		poll.SetLogger(logger)
	}

	s := newSession(*maxFds, uint32(*uid))
	defer s.close()

	if *interactive {
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			fmt.Fprintln(os.Stderr, "Error: interactive mode requires a terminal")
			os.Exit(1)
		}
		if err := runInteractive(s); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := runScript(s, flag.Args()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// runScript executes commands given as arguments, or a demo sequence
// when none were given.
func runScript(s *session, cmds []string) error {
	if len(cmds) == 0 {
		cmds = []string{
			"open", "commit 0", "table",
			"fget 0", "close 0", "table", "ret", "table",
		}
	}
	for _, c := range cmds {
		out, err := s.exec(c)
		if err != nil {
			return fmt.Errorf("%s: %w", c, err)
		}
		fmt.Printf("> %s\n%s\n", c, out)
	}
	return nil
}

// session is a simulated task driven by commands. It backs both the
// scripted and the interactive mode.
type session struct {
	tk      *task.Task
	files   map[int]*file.File // files opened but not yet committed, by rsv fd
	rsvs    map[int]*fdtable.Reservation
	handles []*kobj.Shared[*file.File]
	flags   uint32
}

func newSession(maxFds int, uid uint32) *session {
	c := cred.New(cred.Kuid(uid), 1)
	tk := task.New(task.WithMaxFds(maxFds), task.WithCred(c))
	kobj.Release(c)
	return &session{
		tk:    tk,
		files: make(map[int]*file.File),
		rsvs:  make(map[int]*fdtable.Reservation),
		flags: file.ORdwr,
	}
}

func (s *session) close() {
	for _, h := range s.handles {
		h.Close()
	}
	for fd, rsv := range s.rsvs {
		rsv.Cancel()
		kobj.Release(s.files[fd])
	}
	s.tk.Exit()
}

// exec runs one command and returns its output.
func (s *session) exec(line string) (string, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "", nil
	}
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case "open":
		rsv, err := s.tk.ReserveFd(0)
		if err != nil {
			return "", err
		}
		f := file.New(s.tk.Cred().Obj(), s.flags)
		s.rsvs[rsv.Fd()] = rsv
		s.files[rsv.Fd()] = f
		return fmt.Sprintf("reserved fd %d for %v", rsv.Fd(), f), nil

	case "commit":
		fd, err := fdArg(args)
		if err != nil {
			return "", err
		}
		rsv, ok := s.rsvs[fd]
		if !ok {
			return "", fmt.Errorf("no pending reservation for fd %d", fd)
		}
		rsv.Commit(kobj.Adopt(s.files[fd]))
		delete(s.rsvs, fd)
		delete(s.files, fd)
		return fmt.Sprintf("fd %d bound", fd), nil

	case "cancel":
		fd, err := fdArg(args)
		if err != nil {
			return "", err
		}
		rsv, ok := s.rsvs[fd]
		if !ok {
			return "", fmt.Errorf("no pending reservation for fd %d", fd)
		}
		rsv.Cancel()
		kobj.Release(s.files[fd])
		delete(s.rsvs, fd)
		delete(s.files, fd)
		return fmt.Sprintf("fd %d released unbound", fd), nil

	case "fget":
		fd, err := fdArg(args)
		if err != nil {
			return "", err
		}
		h, err := s.tk.Fget(fd)
		if err != nil {
			return "", err
		}
		s.handles = append(s.handles, h)
		return fmt.Sprintf("handle #%d -> %v", len(s.handles)-1, h.Obj()), nil

	case "put":
		if len(s.handles) == 0 {
			return "", fmt.Errorf("no handles held")
		}
		h := s.handles[len(s.handles)-1]
		s.handles = s.handles[:len(s.handles)-1]
		f := h.Obj()
		h.Close()
		return fmt.Sprintf("released handle for %v", f), nil

	case "close":
		fd, err := fdArg(args)
		if err != nil {
			return "", err
		}
		c := deferclose.New()
		if err := c.CloseFd(s.tk, fd); err != nil {
			return "", err
		}
		return fmt.Sprintf("fd %d closed, release deferred (%v)", fd, c.State()), nil

	case "ret":
		s.tk.ReturnToUser()
		return "safe point reached, deferred work drained", nil

	case "table":
		return s.tableString(), nil

	case "help":
		return helpText, nil
	}

	return "", fmt.Errorf("unknown command %q (try help)", cmd)
}

func (s *session) tableString() string {
	var b strings.Builder
	fds := s.tk.Files().Fds()
	fmt.Fprintf(&b, "%d/%d bound, %d pending work, %d handles held\n",
		len(fds), s.tk.Files().MaxFds(), s.tk.Pending(), len(s.handles))
	for _, fd := range fds {
		h, err := s.tk.Fget(fd)
		if err != nil {
			continue
		}
		// The transient lookup handle inflates the count by one.
		fmt.Fprintf(&b, "  fd %-3d %v refs:%d\n", fd, h.Obj(), h.Obj().RefCount()-1)
		h.Close()
	}
	var pending []int
	for fd := range s.rsvs {
		pending = append(pending, fd)
	}
	sort.Ints(pending)
	for _, fd := range pending {
		fmt.Fprintf(&b, "  fd %-3d (reserved, unbound)\n", fd)
	}
	return strings.TrimRight(b.String(), "\n")
}

func fdArg(args []string) (int, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("expected exactly one fd argument")
	}
	fd, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, fmt.Errorf("bad fd %q", args[0])
	}
	return fd, nil
}

const helpText = `commands:
  open         reserve a slot and open a file for it
  commit <fd>  bind the opened file into its reserved slot
  cancel <fd>  release a reservation without binding
  fget <fd>    take an owning handle to a bound file
  put          drop the most recently taken handle
  close <fd>   deferred close (slot reusable immediately)
  ret          reach the safe point, run deferred work
  table        show the descriptor table
  help         this text`
