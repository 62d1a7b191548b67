// Package registrar turns a recipe manifest and a bakery descriptor into
// fully resolved, registered workflow-engine flows.
//
// The pipeline is: version gate, then per recipe the target resolver, the
// executor and run-config builders and the flow-storage resolver, then the
// assembler binding it all to the computation object, then registration
// with the external engine.
//
//	manifest + bakery
//	      |
//	CheckVersions          -- three-way toolchain agreement, all-or-nothing
//	      |
//	ResolveTargets         -- output / input-cache / metadata-cache handles
//	BuildExecutor          -- scalable worker-pool configuration
//	BuildRunConfig         -- driver process environment
//	ResolveFlowStorage     -- where the flow definition itself lives
//	      |
//	AssembleFlow           -- bind recipe, retry policy, verbose diagnostics
//	      |
//	Orchestrator           -- sequential loop, register + optional run/hook
//
// Every failure carries a Kind from the package's error taxonomy; the
// first error aborts the whole batch and nothing is rolled back.
package registrar
