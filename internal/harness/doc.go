// Package harness implements the assertion harness used by jsconform scripts.
//
// A Harness evaluates scripts through an injected Host (the engine that
// actually parses and runs the script language) and checks the results of
// three operations:
//
//   - AssertEquals(expected, actual): equality under the host's semantics
//   - AssertThrows(source, kind): source must raise an error of exactly kind
//   - Load(path): delegated to a Loader; a no-op import boundary by default
//
// # Fail-fast
//
// The first failing assertion halts the run. The failure is returned to the
// caller (and raised into the script by the host binding), and every later
// assertion returns that same failure without evaluating anything. A script
// that catches the failure cannot un-halt the harness.
//
// # Outcomes
//
// Each assertion produces one Record whose Outcome is pass, fail or errored.
// Errored means the host raised something the harness could not classify,
// such as an interrupt during AssertThrows.
//
// # Usage
//
//	rt := jsrt.New()
//	h := harness.New(rt, harness.WithLoader(rt))
//	rt.Install(h)
//	result, err := h.RunScript(ctx, "computed-property-name.js", src)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if !result.Pass {
//	    fmt.Println(result.Failure)
//	}
package harness
