// Package process launches parsed commands as local child processes and
// terminates them again.
//
// Two spawn modes exist. Attached children share the supervisor's standard
// streams and process group, so a terminal interrupt reaches them too.
// Detached children get null standard streams and their own process group on
// Unix (DETACHED_PROCESS plus CREATE_NEW_PROCESS_GROUP on Windows), so closing
// the supervisor's terminal does not signal them. Platforms without a process
// group concept treat detached as attached.
//
// Termination only targets the direct child. Descendants are the concern of
// the proctree package.
package process
