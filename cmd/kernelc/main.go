// SPDX-License-Identifier: Apache-2.0
package main

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"

	"kernelc/internal/backend"
	kerrors "kernelc/internal/errors"
	"kernelc/internal/runtime"
	"kernelc/internal/runtime/hostdriver"
)

const (
	exitOK            = 0
	exitInvalidInput  = 2
	exitCompileFailed = 3
	exitLaunchFailed  = 4
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(exitInvalidInput)
	}

	var err error
	switch os.Args[1] {
	case "compile":
		err = runCompile(os.Args[2:])
	case "inspect":
		err = runInspect(os.Args[2:])
	case "run":
		err = runRun(os.Args[2:])
	default:
		usage()
		os.Exit(exitInvalidInput)
	}

	if err == nil {
		os.Exit(exitOK)
	}

	var ce kerrors.CompilerError
	if errors.As(err, &ce) {
		reporter := kerrors.NewErrorReporter("kernelc")
		fmt.Fprint(os.Stderr, reporter.FormatError(ce))
		if ce.Kind == kerrors.LaunchFailed {
			os.Exit(exitLaunchFailed)
		}
		os.Exit(exitCompileFailed)
	}

	color.Red("error: %s", err)
	os.Exit(exitInvalidInput)
}

func usage() {
	fmt.Println("Usage: kernelc <compile|inspect|run> [flags]")
	fmt.Println("  compile -kernel NAME -backend cpuil|ptx|velocity [-out FILE]")
	fmt.Println("  inspect -kernel NAME [-backend cpuil|ptx|velocity] [-stage ir|lowered|compiled]")
	fmt.Println("  run     -kernel NAME -backend cpuil|velocity -n COUNT")
}

// flags does the teacher's flag-free os.Args parsing (cmd/kanso-cli's
// style), reading "-name value" pairs in any order.
func flags(args []string) map[string]string {
	out := make(map[string]string)
	for i := 0; i+1 < len(args); i += 2 {
		out[strings.TrimPrefix(args[i], "-")] = args[i+1]
	}
	return out
}

func runCompile(args []string) error {
	f := flags(args)
	build, ok := demoKernels[f["kernel"]]
	if !ok {
		return fmt.Errorf("unknown kernel %q", f["kernel"])
	}
	nb, err := selectBackend(f["backend"])
	if err != nil {
		return err
	}

	m := build()
	bindings := lower(m, nb.table)
	kernel, err := nb.compile(m, bindings)
	if err != nil {
		return err
	}

	if out := f["out"]; out != "" {
		if err := os.WriteFile(out, kernel.Code, 0o644); err != nil {
			return err
		}
		color.Green("wrote %s (%d bytes, entry %q)", out, len(kernel.Code), kernel.EntryPoint)
		return nil
	}
	os.Stdout.Write(kernel.Code)
	return nil
}

func runInspect(args []string) error {
	f := flags(args)
	build, ok := demoKernels[f["kernel"]]
	if !ok {
		return fmt.Errorf("unknown kernel %q", f["kernel"])
	}
	stage := f["stage"]
	if stage == "" {
		stage = "ir"
	}

	m := build()
	switch stage {
	case "ir":
		fmt.Print(dumpMethod(m))
		return nil
	case "lowered":
		backendName := f["backend"]
		if backendName == "" {
			backendName = "cpuil"
		}
		nb, err := selectBackend(backendName)
		if err != nil {
			return err
		}
		lower(m, nb.table)
		fmt.Print(dumpMethod(m))
		return nil
	case "compiled", "ptx":
		backendName := f["backend"]
		if backendName == "" {
			backendName = "ptx"
		}
		nb, err := selectBackend(backendName)
		if err != nil {
			return err
		}
		bindings := lower(m, nb.table)
		kernel, err := nb.compile(m, bindings)
		if err != nil {
			return err
		}
		os.Stdout.Write(kernel.Code)
		return nil
	default:
		return fmt.Errorf("unknown inspect stage %q (want ir, lowered or compiled)", stage)
	}
}

func runRun(args []string) error {
	f := flags(args)
	build, ok := demoKernels[f["kernel"]]
	if !ok {
		return fmt.Errorf("unknown kernel %q", f["kernel"])
	}
	backendName := f["backend"]
	if backendName == "" {
		backendName = "cpuil"
	}
	n := 8
	if s := f["n"]; s != "" {
		parsed, err := strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("bad -n %q: %w", s, err)
		}
		n = parsed
	}

	nb, err := selectBackend(backendName)
	if err != nil {
		return err
	}
	m := build()
	bindings := lower(m, nb.table)
	kernel, err := nb.compile(m, bindings)
	if err != nil {
		return err
	}

	driver := hostdriver.NewDriver()
	driver.RegisterMethod(m)
	devices, err := driver.Enumerate()
	if err != nil || len(devices) == 0 {
		return kerrors.DeviceUnavailableError("host", "no devices enumerated").Build()
	}

	acc, err := runtime.NewAccelerator("host", driver, devices[0], 1<<30, nil)
	if err != nil {
		return err
	}
	defer acc.Close()

	inBuf, err := acc.Allocate(runtime.BufferI64, int64(n))
	if err != nil {
		return err
	}
	outBuf, err := acc.Allocate(runtime.BufferI64, int64(n))
	if err != nil {
		return err
	}

	raw := make([]byte, n*8)
	for i := 0; i < n; i++ {
		binary.LittleEndian.PutUint64(raw[i*8:(i+1)*8], uint64(i))
	}
	if err := hostdriver.WriteBuffer(inBuf, raw); err != nil {
		return err
	}

	module, err := acc.LoadKernel(m.ID, backendName, nil, func() (*backend.CompiledKernel, error) {
		return kernel, nil
	})
	if err != nil {
		return err
	}

	stream := acc.CreateStream()
	ctx := context.Background()
	cfg := runtime.LaunchConfig{Grid: runtime.Dim3{X: n, Y: 1, Z: 1}}
	if err := acc.Launch(ctx, module, stream, cfg, []runtime.Buffer{inBuf, outBuf}); err != nil {
		return err
	}
	if err := acc.Synchronize(ctx, stream); err != nil {
		return err
	}

	out, err := hostdriver.ReadBuffer(outBuf)
	if err != nil {
		return err
	}
	values := make([]string, n)
	for i := 0; i < n; i++ {
		values[i] = strconv.FormatInt(int64(binary.LittleEndian.Uint64(out[i*8:(i+1)*8])), 10)
	}
	fmt.Printf("[%s]\n", strings.Join(values, ", "))
	return nil
}
