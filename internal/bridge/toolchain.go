package bridge

// DefaultLogPredicate keeps log streams to processes running from app containers.
const DefaultLogPredicate = `senderImagePath contains "Containers"`

// toolchain templates invocations for one tool family. A bridge holds exactly
// one toolchain, chosen at construction.
type toolchain interface {
	family() Family
	path() string
	logStream(id string, kind DeviceKind, predicate string) (inv Invocation, structured bool)
	screenshot(id, out string) Invocation
	navigate(id, url string) Invocation
	recordVideo(id, out string) Invocation
}

func logFilterArgs(predicate string) []string {
	return []string{"--style", "json", "--predicate", predicate, "--debug", "--info"}
}

// idbToolchain drives the preferred idb client.
type idbToolchain struct {
	bin string
}

func (t idbToolchain) family() Family { return FamilyPreferred }
func (t idbToolchain) path() string   { return t.bin }

func (t idbToolchain) invocation(args ...string) Invocation {
	return Invocation{
		Path: t.bin,
		Args: args,
		// idb is a python client; keep its output line-buffered for streaming.
		Env: map[string]string{"PYTHONUNBUFFERED": "1"},
	}
}

func (t idbToolchain) logStream(id string, kind DeviceKind, predicate string) (Invocation, bool) {
	args := []string{"log", "--udid", id, "--"}
	// idb cannot pass log filters through to physical devices.
	if kind == KindPhysical {
		return t.invocation(args...), false
	}
	return t.invocation(append(args, logFilterArgs(predicate)...)...), true
}

func (t idbToolchain) screenshot(id, out string) Invocation {
	return t.invocation("screenshot", "--udid", id, out)
}

func (t idbToolchain) navigate(id, url string) Invocation {
	return t.invocation("open", "--udid", id, url)
}

func (t idbToolchain) recordVideo(id, out string) Invocation {
	return t.invocation("record-video", "--udid", id, out)
}

// xcrunToolchain drives simctl through xcrun.
type xcrunToolchain struct {
	bin string
}

func (t xcrunToolchain) family() Family { return FamilyFallback }
func (t xcrunToolchain) path() string   { return t.bin }

func (t xcrunToolchain) invocation(args ...string) Invocation {
	return Invocation{Path: t.bin, Args: args}
}

func (t xcrunToolchain) logStream(id string, _ DeviceKind, predicate string) (Invocation, bool) {
	args := append([]string{"simctl", "spawn", id, "log", "stream"}, logFilterArgs(predicate)...)
	return t.invocation(args...), true
}

func (t xcrunToolchain) screenshot(id, out string) Invocation {
	return t.invocation("simctl", "io", id, "screenshot", out)
}

func (t xcrunToolchain) navigate(id, url string) Invocation {
	return t.invocation("simctl", "io", id, "launch", "url", url)
}

func (t xcrunToolchain) recordVideo(id, out string) Invocation {
	return t.invocation("simctl", "io", id, "recordVideo", "--codec=h264", "--force", out)
}
