// Package pypi provides an HTTP client for the Python Package Index JSON API.
//
// # Usage
//
//	client := pypi.NewClient(backend, 24*time.Hour, "")
//	project, err := client.FetchProject(ctx, "django", false)  // false = use cache
//	if err != nil {
//	    return err
//	}
//	fmt.Println(project.Name, project.Releases)
//
// Only the release listing is decoded: the display name, the latest version
// PyPI advertises, the versions that can still be installed, and the
// project's Requires-Python.
//
// # Caching
//
// Responses are cached under the PEP 503 normalized project name, scoped by
// index URL so that mirrors never share entries. Pass refresh=true to
// [Client.FetchProject] to bypass the cache.
package pypi
