package server

import (
	"fmt"
	"net/http"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/desertthunder/medialink/internal/models"
)

// LibraryRoot is where the stub lays out its Plex-style library.
const LibraryRoot = "/Media"

// MountRoot is where the stub pretends the remote store is mounted.
const MountRoot = "/mnt/torbox"

var tmdbTag = regexp.MustCompile(`\{tmdb-(\d+)\}`)

func librarySection(mediaType models.MediaType) string {
	if mediaType == models.MediaTV {
		return "Shows"
	}
	return "Movies"
}

// LibraryFolder names the title folder for q, e.g. "The Matrix (1999) {tmdb-603}".
func LibraryFolder(q models.ExistsQuery) string {
	name := q.Title
	if q.Year != "" {
		name = fmt.Sprintf("%s (%s)", name, q.Year)
	}
	return fmt.Sprintf("%s {tmdb-%d}", name, q.TMDBID)
}

// LibraryPath is where a file linked for q lands inside the library.
func LibraryPath(q models.ExistsQuery, filename string) string {
	dir := path.Join(LibraryRoot, librarySection(q.MediaType), LibraryFolder(q))
	if q.MediaType == models.MediaTV && q.SeasonNumber != nil {
		dir = path.Join(dir, fmt.Sprintf("Season %02d", *q.SeasonNumber))
	}
	return path.Join(dir, filename)
}

func (s *Stub) link(q models.ExistsQuery, linkPath, source string) {
	s.library[q.Key()] = linkPath
	s.links[linkPath] = true
	s.targets[linkPath] = path.Join(MountRoot, strings.TrimPrefix(source, "/"))
}

// unlinkUnder drops every link at or below prefix and returns how many went.
func (s *Stub) unlinkUnder(prefix string) int {
	n := 0
	for p := range s.links {
		if p != prefix && !strings.HasPrefix(p, prefix+"/") {
			continue
		}
		delete(s.links, p)
		delete(s.targets, p)
		for key, lp := range s.library {
			if lp == p {
				delete(s.library, key)
			}
		}
		n++
	}
	return n
}

func (s *Stub) folders(mediaType models.MediaType) []models.LibraryFolder {
	root := path.Join(LibraryRoot, librarySection(mediaType)) + "/"
	seen := make(map[string]bool)
	out := []models.LibraryFolder{}
	for p := range s.links {
		if !strings.HasPrefix(p, root) {
			continue
		}
		name, _, _ := strings.Cut(strings.TrimPrefix(p, root), "/")
		if seen[name] {
			continue
		}
		seen[name] = true
		f := models.LibraryFolder{Name: name}
		if m := tmdbTag.FindStringSubmatch(name); m != nil {
			id, _ := strconv.Atoi(m[1])
			f.TMDBID = &id
		}
		out = append(out, f)
	}
	sort.Slice(out, func(i, k int) bool { return out[i].Name < out[k].Name })
	return out
}

func (s *Stub) structure(dir string) []models.LibraryNode {
	var out []models.LibraryNode
	dirs := make(map[string]bool)
	for p, alive := range s.links {
		if !strings.HasPrefix(p, dir+"/") {
			continue
		}
		rel := strings.TrimPrefix(p, dir+"/")
		parts := strings.Split(rel, "/")
		for i := 1; i < len(parts); i++ {
			d := path.Join(parts[:i]...)
			if !dirs[d] {
				dirs[d] = true
				out = append(out, models.LibraryNode{Type: "directory", Name: parts[i-1], Path: d, FullPath: path.Join(dir, d)})
			}
		}
		out = append(out, models.LibraryNode{Type: "file", Name: path.Base(p), Path: rel, FullPath: p, IsSymlink: true, IsValid: alive})
	}
	sort.Slice(out, func(i, k int) bool {
		if out[i].IsDir() != out[k].IsDir() {
			return out[i].IsDir()
		}
		return out[i].Path < out[k].Path
	})
	return out
}

func titleDir(mediaType models.MediaType, folder string) string {
	return path.Join(LibraryRoot, librarySection(mediaType), path.Base(folder))
}

func (s *Stub) handleLibrary(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	lib := models.Library{Movies: s.folders(models.MediaMovie), Shows: s.folders(models.MediaTV)}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, lib)
}

func (s *Stub) handleLibraryStructure(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	dir := titleDir(models.MediaType(q.Get("media_type")), q.Get("folder_name"))
	s.mu.Lock()
	nodes := s.structure(dir)
	s.mu.Unlock()
	if len(nodes) == 0 {
		writeDetail(w, http.StatusNotFound, "Directory not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string][]models.LibraryNode{"structure": nodes})
}

func (s *Stub) handleSymlinkInfo(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Filepath string `json:"filepath"`
	}
	if !decode(w, r, &body) {
		return
	}
	s.mu.Lock()
	alive, known := s.links[body.Filepath]
	target := s.targets[body.Filepath]
	s.mu.Unlock()
	if !known {
		writeDetail(w, http.StatusNotFound, "File does not exist")
		return
	}
	writeJSON(w, http.StatusOK, models.SymlinkInfo{
		IsSymlink:    true,
		SymlinkName:  path.Base(body.Filepath),
		OriginalName: path.Base(target),
		TargetPath:   target,
		IsAlive:      alive,
		FullPath:     body.Filepath,
	})
}

func (s *Stub) handleDeleteSymlink(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Filepath string `json:"filepath"`
	}
	if !decode(w, r, &body) {
		return
	}
	s.mu.Lock()
	_, known := s.links[body.Filepath]
	if known {
		s.unlinkUnder(body.Filepath)
		s.sysLog("removed %s", body.Filepath)
	}
	s.mu.Unlock()
	if !known {
		writeDetail(w, http.StatusNotFound, "File does not exist")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "message": "File removed"})
}

type libraryDeleteRequest struct {
	MediaType    models.MediaType `json:"media_type"`
	FolderName   string           `json:"folder_name"`
	SeasonNumber int              `json:"season_number"`
}

// deleteTree removes everything under dir, answering 404 with missing when nothing was there.
func (s *Stub) deleteTree(w http.ResponseWriter, dir, missing string) {
	s.mu.Lock()
	n := s.unlinkUnder(dir)
	if n > 0 {
		s.sysLog("removed %d files under %s", n, dir)
	}
	s.mu.Unlock()
	if n == 0 {
		writeDetail(w, http.StatusNotFound, missing)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "message": fmt.Sprintf("Removed %s", path.Base(dir))})
}

func (s *Stub) handleDeleteSeason(w http.ResponseWriter, r *http.Request) {
	var req libraryDeleteRequest
	if !decode(w, r, &req) {
		return
	}
	if req.MediaType != models.MediaTV {
		writeDetail(w, http.StatusBadRequest, "Only series have seasons")
		return
	}
	dir := path.Join(titleDir(models.MediaTV, req.FolderName), fmt.Sprintf("Season %02d", req.SeasonNumber))
	s.deleteTree(w, dir, "Season does not exist")
}

func (s *Stub) handleDeleteSeries(w http.ResponseWriter, r *http.Request) {
	var req libraryDeleteRequest
	if !decode(w, r, &req) {
		return
	}
	if req.MediaType != models.MediaTV {
		writeDetail(w, http.StatusBadRequest, "Only series can be removed here")
		return
	}
	s.deleteTree(w, titleDir(models.MediaTV, req.FolderName), "Series does not exist")
}

func (s *Stub) handleDeleteMovie(w http.ResponseWriter, r *http.Request) {
	var req libraryDeleteRequest
	if !decode(w, r, &req) {
		return
	}
	s.deleteTree(w, titleDir(models.MediaMovie, req.FolderName), "Movie does not exist")
}
