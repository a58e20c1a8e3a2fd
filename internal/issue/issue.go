// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

type Id int

const (
	InputNotFoundId Id = iota + 1
	AmbiguousInputId
	UnsupportedInputId
	MetadataReadId
	VersionFormatId
	ExtractionFailedId
	ContainerEngineNotFoundId
	BuilderFailedId
	DownloadFailedId
	DefinitionsNotFoundId
	ConfigLoadFailedId
	PermissionDeniedId
)

type MarkdownMsg string

type HttpLink string

type Issue struct {
	id       Id          // ID used to lookup the issue
	mdMsg    MarkdownMsg // Markdown text that will be rendered
	docLinks []HttpLink
	extLinks []HttpLink // external links that might be useful for the user
}

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

// Render renders the issue as terminal markdown. stylePath is a glamour
// standard style name ("auto", "dark", "light", "notty") or a JSON style file.
func (i *Issue) Render(stylePath string) (string, error) {
	var md strings.Builder
	md.WriteString(string(i.mdMsg))
	if links := append(slices.Clone(i.docLinks), i.extLinks...); len(links) > 0 {
		md.WriteString("\n\n## See also\n")
		for _, link := range links {
			md.WriteString("- <" + string(link) + ">\n")
		}
	}
	return render(md.String(), stylePath)
}

var (
	render = glamour.Render

	inputNotFoundIssue = &Issue{
		id: InputNotFoundId,
		mdMsg: `
# Input not found!

The path you passed to mxdock does not exist or cannot be read.

## Things you can try:
- Check the spelling of the path
- Pass the project directory, a ` + "`.mpk`" + ` package, a ` + "`.mpr`" + ` project file or a ` + "`.mda`" + ` archive:
~~~
$ mxdock build ./MyApp
$ mxdock build ./MyApp.mpk
~~~`,
	}

	ambiguousInputIssue = &Issue{
		id: AmbiguousInputId,
		mdMsg: `
# More than one candidate file!

The directory contains several files of the same kind, so mxdock cannot
tell which one to use.

## Things you can try:
- Pass the file you want directly:
~~~
$ mxdock build ./MyApp/MyApp.mpr
~~~

- Move the other packages or archives out of the directory`,
	}

	unsupportedInputIssue = &Issue{
		id: UnsupportedInputId,
		mdMsg: `
# Nothing to build here!

mxdock accepts one of:
- a packaged project (` + "`.mpk`" + `)
- a project directory with a ` + "`.mpr`" + ` file
- a pre-built application archive (` + "`.mda`" + `)
- an extracted application (a directory containing ` + "`model/metadata.json`" + `)

## Things you can try:
- Check which form your input has:
~~~
$ mxdock inspect <path>
~~~`,
	}

	metadataReadIssue = &Issue{
		id: MetadataReadId,
		mdMsg: `
# Project metadata is missing or unreadable!

mxdock reads the platform version from ` + "`model/metadata.json`" + ` in an
application, or from the ` + "`_MetaData`" + ` table of a ` + "`.mpr`" + ` project file.

## Things you can try:
- Export the application archive again from the modeler
- Make sure the ` + "`.mpr`" + ` file is not open in another program
- Confirm that ` + "`RuntimeVersion`" + ` is present:
~~~json
{"RuntimeVersion": "10.6.1.0", "JavaVersion": 17}
~~~`,
	}

	versionFormatIssue = &Issue{
		id: VersionFormatId,
		mdMsg: `
# Invalid version!

A version must be dot-separated non-negative integers, for example
` + "`9.24.0.2`" + ` or ` + "`10.6`" + `.

## Things you can try:
- Check the ` + "`RuntimeVersion`" + ` in ` + "`model/metadata.json`" + `
- Check ` + "`toolchain.modern_threshold`" + ` in your config file`,
	}

	extractionFailedIssue = &Issue{
		id: ExtractionFailedId,
		mdMsg: `
# Failed to unpack the archive!

The package or application archive is not a valid zip file, or contains
entries that would be written outside the extraction directory.

## Things you can try:
- Download or export the archive again
- Test it with your zip tool:
~~~
$ unzip -t MyApp.mda
~~~`,
	}

	containerEngineNotFoundIssue = &Issue{
		id: ContainerEngineNotFoundId,
		mdMsg: `
# Container engine not found!

Compiling a project needs Podman or Docker on your PATH.

## Supported container engines:
- **Podman** (tried first)
- **Docker**

## Things you can try:
- Install Podman:
  - Linux: ` + "`sudo apt install podman`" + ` or ` + "`sudo dnf install podman`" + `
  - macOS: ` + "`brew install podman`" + `
  - Windows: use the Podman installer

- Install Docker Desktop or Docker Engine

- Check what mxdock detects:
~~~
$ mxdock doctor
~~~

- Configure your preferred engine in ~/.config/mxdock/config.cue:
~~~cue
container_engine: "docker"
~~~`,
		extLinks: []HttpLink{
			"https://podman.io/docs/installation",
			"https://docs.docker.com/get-docker/",
		},
	}

	builderFailedIssue = &Issue{
		id: BuilderFailedId,
		mdMsg: `
# Container build failed!

The container engine returned an error while building the compiler image or
compiling the project.

## Things you can try:
- Run with verbose mode to see the full engine output:
~~~
$ mxdock --verbose build <path>
~~~

- Rebuild the compiler image from scratch:
~~~
$ mxdock --rebuild build <path>
~~~

- Open the project in the modeler and fix any consistency errors`,
	}

	downloadFailedIssue = &Issue{
		id: DownloadFailedId,
		mdMsg: `
# Failed to download the compiler!

The compiler archive for this platform version could not be downloaded.

## Things you can try:
- Check your network connection and proxy settings
- Check that the version exists upstream
- Point mxdock at a mirror in your config file:
~~~cue
download_base_url: "https://mirror.example.com/runtimes"
~~~`,
		docLinks: []HttpLink{"https://docs.mendix.com/releasenotes/studio-pro/"},
	}

	definitionsNotFoundIssue = &Issue{
		id: DefinitionsNotFoundId,
		mdMsg: `
# Toolchain definitions not found!

mxdock needs a definitions directory containing ` + "`scripts/mxbuild`" + ` and the
compiler Dockerfiles.

## Things you can try:
- Run mxdock from the directory holding ` + "`definitions/`" + `
- Or pass the location explicitly:
~~~
$ mxdock --definitions-dir /opt/mxdock/definitions build <path>
~~~`,
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration!

Could not load the mxdock configuration file.

## Things you can try:
- Check the file for CUE syntax errors
- Compare it with the defaults:
~~~
$ mxdock config show
~~~

- Check ` + "`MXDOCK_*`" + ` environment variables, which override file values`,
	}

	permissionDeniedIssue = &Issue{
		id: PermissionDeniedId,
		mdMsg: `
# Permission denied!

mxdock could not read the input or write to a temporary, cache or output
directory.

## Things you can try:
- Check the permissions of the input path
- Point temporary directories somewhere writable:
~~~
$ MXDOCK_TEMP_DIR=$HOME/tmp mxdock build <path>
~~~`,
	}

	issues = map[Id]*Issue{
		inputNotFoundIssue.Id():           inputNotFoundIssue,
		ambiguousInputIssue.Id():          ambiguousInputIssue,
		unsupportedInputIssue.Id():        unsupportedInputIssue,
		metadataReadIssue.Id():            metadataReadIssue,
		versionFormatIssue.Id():           versionFormatIssue,
		extractionFailedIssue.Id():        extractionFailedIssue,
		containerEngineNotFoundIssue.Id(): containerEngineNotFoundIssue,
		builderFailedIssue.Id():           builderFailedIssue,
		downloadFailedIssue.Id():          downloadFailedIssue,
		definitionsNotFoundIssue.Id():     definitionsNotFoundIssue,
		configLoadFailedIssue.Id():        configLoadFailedIssue,
		permissionDeniedIssue.Id():        permissionDeniedIssue,
	}
)

// Values returns every catalogued issue ordered by Id.
func Values() []*Issue {
	ids := maps.Keys(issues)
	slices.Sort(ids)
	out := make([]*Issue, 0, len(ids))
	for _, id := range ids {
		out = append(out, issues[id])
	}
	return out
}

func Get(id Id) *Issue {
	return issues[id]
}
