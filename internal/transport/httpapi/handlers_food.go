package httpapi

import (
	"errors"
	"net/http"

	"homehub/internal/store"
	logx "homehub/pkg/logx"
)

type foodSaveRequest struct {
	ID            FlexID   `json:"id"`
	Name          string   `json:"name"`
	Procedure     string   `json:"procedure"`
	ImageURLs     []string `json:"image_urls"`
	CateIDs       []int64  `json:"cate_ids"`
	IngredientIDs []int64  `json:"ingredient_ids"`
}

type foodRow struct {
	ID              int64    `json:"id"`
	Name            string   `json:"name"`
	Procedure       string   `json:"procedure"`
	UserID          int64    `json:"user_id"`
	CateIDs         []int64  `json:"cate_ids"`
	IngredientIDs   []int64  `json:"ingredient_ids"`
	IngredientNames []string `json:"ingredient_names"`
	ImageURLs       []string `json:"image_urls"`
}

func (s *Server) handleFoodSave(w http.ResponseWriter, r *http.Request) {
	var req foodSaveRequest
	if err := decodeBody(r, &req); err != nil {
		fail(w, "invalid request body")
		return
	}
	if req.Name == "" {
		fail(w, "name is required")
		return
	}
	info, _ := userFrom(r.Context())
	id, err := s.st.Foods.Save(r.Context(), store.FoodInput{
		ID:            req.ID.Int64(),
		Name:          req.Name,
		Procedure:     req.Procedure,
		UserID:        info.ID,
		ImageURLs:     req.ImageURLs,
		CateIDs:       req.CateIDs,
		IngredientIDs: req.IngredientIDs,
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			fail(w, "food not found")
			return
		}
		s.log.Error("food save failed", logx.Err(err))
		fail(w, "save failed")
		return
	}
	ok(w, map[string]int64{"id": id})
}

func (s *Server) handleFoodList(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", 1)
	pageSize := queryInt(r, "page_size", 10)
	views, total, err := s.st.Foods.List(r.Context(), page, pageSize, r.URL.Query().Get("name"))
	if err != nil {
		s.log.Error("food list failed", logx.Err(err))
		fail(w, "list failed")
		return
	}
	rows := make([]foodRow, 0, len(views))
	for _, v := range views {
		rows = append(rows, foodRow{
			ID:              v.ID,
			Name:            v.Name,
			Procedure:       v.Procedure,
			UserID:          v.UserID,
			CateIDs:         v.CateIDs,
			IngredientIDs:   v.IngredientIDs,
			IngredientNames: v.IngredientNames,
			ImageURLs:       v.ImageURLs,
		})
	}
	okList(w, rows, total)
}

func (s *Server) handleFoodDelete(w http.ResponseWriter, r *http.Request) {
	var req deleteRequest
	if err := decodeBody(r, &req); err != nil {
		fail(w, "invalid request body")
		return
	}
	if err := s.st.Foods.Delete(r.Context(), req.ID.Int64()); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			fail(w, "food not found")
			return
		}
		s.log.Error("food delete failed", logx.Err(err))
		fail(w, "delete failed")
		return
	}
	okMessage(w, "deleted")
}

type nameSaveRequest struct {
	ID   FlexID `json:"id"`
	Name string `json:"name"`
}

type nameRow struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	UserID int64  `json:"user_id"`
}

func (s *Server) handleCateSave(w http.ResponseWriter, r *http.Request) {
	var req nameSaveRequest
	if err := decodeBody(r, &req); err != nil || req.Name == "" {
		fail(w, "name is required")
		return
	}
	info, _ := userFrom(r.Context())
	id, err := s.st.Cates.Save(r.Context(), req.ID.Int64(), req.Name, info.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			fail(w, "cate not found")
			return
		}
		s.log.Error("cate save failed", logx.Err(err))
		fail(w, "save failed")
		return
	}
	ok(w, map[string]int64{"id": id})
}

func (s *Server) handleCateList(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", 1)
	pageSize := queryInt(r, "page_size", 10)
	cates, total, err := s.st.Cates.List(r.Context(), page, pageSize, r.URL.Query().Get("name"))
	if err != nil {
		s.log.Error("cate list failed", logx.Err(err))
		fail(w, "list failed")
		return
	}
	rows := make([]nameRow, 0, len(cates))
	for _, c := range cates {
		rows = append(rows, nameRow{ID: c.ID, Name: c.Name, UserID: c.UserID})
	}
	okList(w, rows, total)
}

func (s *Server) handleCateDelete(w http.ResponseWriter, r *http.Request) {
	var req deleteRequest
	if err := decodeBody(r, &req); err != nil {
		fail(w, "invalid request body")
		return
	}
	if err := s.st.Cates.Delete(r.Context(), req.ID.Int64()); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			fail(w, "cate not found")
			return
		}
		s.log.Error("cate delete failed", logx.Err(err))
		fail(w, "delete failed")
		return
	}
	okMessage(w, "deleted")
}

func (s *Server) handleIngredientSave(w http.ResponseWriter, r *http.Request) {
	var req nameSaveRequest
	if err := decodeBody(r, &req); err != nil || req.Name == "" {
		fail(w, "name is required")
		return
	}
	info, _ := userFrom(r.Context())
	id, err := s.st.Ingredients.Save(r.Context(), req.ID.Int64(), req.Name, info.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			fail(w, "ingredient not found")
			return
		}
		s.log.Error("ingredient save failed", logx.Err(err))
		fail(w, "save failed")
		return
	}
	ok(w, map[string]int64{"id": id})
}

func (s *Server) handleIngredientList(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", 1)
	pageSize := queryInt(r, "page_size", 10)
	ingredients, total, err := s.st.Ingredients.List(r.Context(), page, pageSize, r.URL.Query().Get("name"))
	if err != nil {
		s.log.Error("ingredient list failed", logx.Err(err))
		fail(w, "list failed")
		return
	}
	rows := make([]nameRow, 0, len(ingredients))
	for _, i := range ingredients {
		rows = append(rows, nameRow{ID: i.ID, Name: i.Name, UserID: i.UserID})
	}
	okList(w, rows, total)
}

func (s *Server) handleIngredientDelete(w http.ResponseWriter, r *http.Request) {
	var req deleteRequest
	if err := decodeBody(r, &req); err != nil {
		fail(w, "invalid request body")
		return
	}
	if err := s.st.Ingredients.Delete(r.Context(), req.ID.Int64()); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			fail(w, "ingredient not found")
			return
		}
		s.log.Error("ingredient delete failed", logx.Err(err))
		fail(w, "delete failed")
		return
	}
	okMessage(w, "deleted")
}
