// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"sort"

	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/slices"
)

const (
	TemplateNotFoundId Id = iota + 1
	AssetMissingId
	ConfigLoadFailedId
	RateLimitedId
	AssemblyFailedId
	UnsupportedCatalogId
	ServerStartFailedId
)

type (
	Id int

	MarkdownMsg string

	HttpLink string

	Issue struct {
		id       Id
		name     string
		mdMsg    MarkdownMsg
		docLinks []HttpLink
	}
)

func (i *Issue) Id() Id {
	return i.id
}

// Name is the stable lookup key used by `dupetable issue <name>`.
func (i *Issue) Name() string {
	return i.name
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

func (i *Issue) Render(stylePath string) (string, error) {
	extraMd := ""
	if len(i.docLinks) > 0 {
		extraMd += "\n\n## See also\n"
		for _, link := range i.docLinks {
			extraMd += "- <" + string(link) + ">\n"
		}
	}
	return render(string(i.mdMsg)+extraMd, stylePath)
}

var (
	render = glamour.Render

	templateNotFoundIssue = &Issue{
		id:   TemplateNotFoundId,
		name: "template-not-found",
		mdMsg: `
# Recipe template not found!

Every recipe is rendered from a single template file. The service could not
find it at the configured path.

## Things you can try:
- Scaffold the data directory with the default template:
~~~
$ dupetable init
~~~
- Point ` + "`paths.template`" + ` in your config.cue at an existing file
- The template receives one variable:
~~~
{{ .result_item }}
~~~`,
	}

	assetMissingIssue = &Issue{
		id:   AssetMissingId,
		name: "asset-missing",
		mdMsg: `
# Optional pack asset missing

A pack icon or block texture could not be read. Archives are still complete:
pack icons are omitted and textures are replaced with a blank placeholder.

## Things you can try:
- Check ` + "`paths.pack_icon`" + ` and ` + "`paths.texture_dir`" + ` in your config
- Texture files must be named:
  - duplicating_table_front.png
  - duplicating_table_side.png
  - duplicating_table_top.png`,
	}

	configLoadFailedIssue = &Issue{
		id:   ConfigLoadFailedId,
		name: "config-load-failed",
		mdMsg: `
# Failed to load configuration!

The configuration file contains invalid CUE or values outside the schema.

## Things you can try:
- Show the effective configuration:
~~~
$ dupetable config show
~~~
- Validate the file with the cue command-line tool
- Remove the file to fall back to defaults`,
	}

	rateLimitedIssue = &Issue{
		id:   RateLimitedId,
		name: "rate-limited",
		mdMsg: `
# Too many download requests

Custom downloads are limited per client address within a sliding window.

## Things you can try:
- Wait for the window to pass and retry
- Raise ` + "`rate_limit.requests`" + ` or ` + "`rate_limit.window`" + ` in your config`,
	}

	assemblyFailedIssue = &Issue{
		id:   AssemblyFailedId,
		name: "assembly-failed",
		mdMsg: `
# Archive could not be assembled

The archive was discarded before it became visible, no partial file was left behind.

## Things you can try:
- Check free disk space in the data and temp directories
- Re-run with --verbose to see the failing step`,
	}

	unsupportedCatalogIssue = &Issue{
		id:   UnsupportedCatalogId,
		name: "unsupported-catalog",
		mdMsg: `
# Unsupported catalog file

Only two catalog kinds are understood:

- ` + "`.json`" + `: any structure, item lists are read from every ` + "`\"items\"`" + ` key
- ` + "`.txt`" + `: one item per line, ` + "`#`" + ` and ` + "`//`" + ` start comments`,
	}

	serverStartFailedIssue = &Issue{
		id:   ServerStartFailedId,
		name: "server-start-failed",
		mdMsg: `
# The HTTP server failed to start

## Things you can try:
- Make sure no other process listens on the configured port
- Change ` + "`server.port`" + ` or pass --port`,
	}

	issues = map[Id]*Issue{
		templateNotFoundIssue.Id():   templateNotFoundIssue,
		assetMissingIssue.Id():       assetMissingIssue,
		configLoadFailedIssue.Id():   configLoadFailedIssue,
		rateLimitedIssue.Id():        rateLimitedIssue,
		assemblyFailedIssue.Id():     assemblyFailedIssue,
		unsupportedCatalogIssue.Id(): unsupportedCatalogIssue,
		serverStartFailedIssue.Id():  serverStartFailedIssue,
	}
)

// Values returns every catalog entry ordered by Id.
func Values() []*Issue {
	out := make([]*Issue, 0, len(issues))
	for _, is := range issues {
		out = append(out, is)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].id < out[b].id })
	return out
}

func Get(id Id) *Issue {
	return issues[id]
}

// Lookup finds an issue by its Name.
func Lookup(name string) *Issue {
	for _, is := range issues {
		if is.name == name {
			return is
		}
	}
	return nil
}

// ForError picks the catalog entry that explains err, or nil.
func ForError(err error) *Issue {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrTemplateNotFound):
		return templateNotFoundIssue
	case errors.Is(err, ErrAssetMissing):
		return assetMissingIssue
	case errors.Is(err, ErrRateLimited):
		return rateLimitedIssue
	case errors.Is(err, ErrAssembly):
		return assemblyFailedIssue
	default:
		return nil
	}
}
