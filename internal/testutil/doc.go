// SPDX-License-Identifier: MPL-2.0

// Package testutil provides helper functions for tests that handle errors
// appropriately, reducing boilerplate and ensuring consistent error handling.
//
// Fixture writers lay out every input form mxdock accepts: extracted
// applications (WriteExtractedApp), application archives (WriteAppArchive),
// project-model databases (WriteModelDatabase) and toolchain definitions
// (WriteDefinitions). ContainerSemaphore limits concurrent real-engine tests.
package testutil
