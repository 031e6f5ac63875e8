package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"matter-go-light/internal/attr"
	"matter-go-light/internal/zcl"
)

type attributeView struct {
	Path      string    `json:"path"`
	Endpoint  uint16    `json:"endpoint"`
	Cluster   uint16    `json:"cluster"`
	Attribute uint16    `json:"attribute"`
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	Writable  bool      `json:"writable"`
	Value     zcl.Value `json:"value"`
}

type clusterView struct {
	ID         uint16          `json:"id"`
	Name       string          `json:"name"`
	Attributes []attributeView `json:"attributes"`
}

type endpointView struct {
	ID         uint16        `json:"id"`
	Name       string        `json:"name,omitempty"`
	DeviceType uint16        `json:"device_type"`
	Clusters   []clusterView `json:"clusters"`
}

func viewAttribute(a *attr.Attribute) attributeView {
	def := a.Def()
	p := a.Path()
	return attributeView{
		Path:      p.String(),
		Endpoint:  p.Endpoint,
		Cluster:   p.Cluster,
		Attribute: p.Attribute,
		Name:      def.Name,
		Type:      zcl.TypeName(def.Type),
		Writable:  def.IsWritable(),
		Value:     a.Value(),
	}
}

func (s *Server) handleAPIListAttributes(w http.ResponseWriter, r *http.Request) {
	var eps []endpointView
	for ep := range s.tree.Endpoints() {
		ev := endpointView{ID: ep.ID, Name: ep.Name, DeviceType: ep.DeviceType}
		for c := range ep.Clusters() {
			cv := clusterView{ID: c.ID, Name: c.Name}
			for a := range c.Attributes() {
				cv.Attributes = append(cv.Attributes, viewAttribute(a))
			}
			ev.Clusters = append(ev.Clusters, cv)
		}
		eps = append(eps, ev)
	}
	s.writeJSON(w, http.StatusOK, eps)
}

// parsePath reads hex endpoint, cluster and attribute IDs from the URL.
// The 0x prefix is optional.
func parsePath(r *http.Request) (attr.Path, error) {
	var ids [3]uint16
	for i, name := range []string{"endpoint", "cluster", "attribute"} {
		raw := r.PathValue(name)
		tok := strings.TrimPrefix(strings.TrimPrefix(raw, "0x"), "0X")
		n, err := strconv.ParseUint(tok, 16, 16)
		if err != nil {
			return attr.Path{}, fmt.Errorf("invalid %s id %q", name, raw)
		}
		ids[i] = uint16(n)
	}
	return attr.Path{Endpoint: ids[0], Cluster: ids[1], Attribute: ids[2]}, nil
}

func (s *Server) handleAPIGetAttribute(w http.ResponseWriter, r *http.Request) {
	p, err := parsePath(r)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	a, err := s.tree.Lookup(p)
	if err != nil {
		s.writeJSON(w, http.StatusNotFound, map[string]string{"error": "attribute not found"})
		return
	}
	s.writeJSON(w, http.StatusOK, viewAttribute(a))
}

type writeAttributeRequest struct {
	Value any `json:"value"`
}

// handleAPIWriteAttribute is a debug write like the console's "driver set":
// the attribute's access flags are reported but not enforced.
func (s *Server) handleAPIWriteAttribute(w http.ResponseWriter, r *http.Request) {
	p, err := parsePath(r)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	a, err := s.tree.Lookup(p)
	if err != nil {
		s.writeJSON(w, http.StatusNotFound, map[string]string{"error": "attribute not found"})
		return
	}

	var req writeAttributeRequest
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Value == nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "value is required"})
		return
	}

	v, err := zcl.ValueOf(a.Def().Type, req.Value)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	if err := s.tree.Update(p, v); err != nil {
		switch {
		case errors.Is(err, attr.ErrNotFound):
			s.writeJSON(w, http.StatusNotFound, map[string]string{"error": "attribute not found"})
		case errors.Is(err, attr.ErrTypeMismatch):
			s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		default:
			// Rejected by an update hook, usually the light peripheral.
			s.logger.Error("write attribute", "path", p.String(), "err", err)
			s.writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
		}
		return
	}
	s.writeJSON(w, http.StatusOK, viewAttribute(a))
}

func (s *Server) handleAPIListClusters(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.registry.All())
}

func (s *Server) handleAPILight(w http.ResponseWriter, r *http.Request) {
	if s.light == nil {
		s.writeJSON(w, http.StatusNotFound, map[string]string{"error": "light state not available"})
		return
	}
	st := s.light.State()
	red, green, blue := st.RGB()
	s.writeJSON(w, http.StatusOK, map[string]any{
		"state": st,
		"rgb":   [3]uint8{red, green, blue},
	})
}

func (s *Server) handleAPIVersion(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"version": s.version})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("writeJSON encode failed", "err", err)
	}
}
