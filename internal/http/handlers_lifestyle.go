package http

import (
	"net/http"

	"hearth/internal/core"
	authmw "hearth/internal/middleware/auth"
)

func (s *Server) handleBirthdayList(w http.ResponseWriter, r *http.Request) {
	householdID := authmw.HouseholdID(r.Context())

	birthdays, err := s.repo.ListBirthdays(r.Context(), householdID)
	if err != nil {
		writeError(w, err)
		return
	}
	if birthdays == nil {
		birthdays = []core.Birthday{}
	}
	writeJSON(w, http.StatusOK, birthdays)
}

func (s *Server) handleBirthdayCreate(w http.ResponseWriter, r *http.Request) {
	householdID := authmw.HouseholdID(r.Context())

	var birthday core.Birthday
	if err := decode(r, &birthday); err != nil {
		writeBadRequest(w, "%v", err)
		return
	}
	birthday.HouseholdID = householdID
	if err := birthday.Validate(); err != nil {
		writeError(w, err)
		return
	}

	created, err := s.repo.CreateBirthday(r.Context(), birthday)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleBirthdayUpdate(w http.ResponseWriter, r *http.Request) {
	householdID := authmw.HouseholdID(r.Context())

	id, err := pathID(r)
	if err != nil {
		writeBadRequest(w, "invalid birthday id")
		return
	}

	var birthday core.Birthday
	if err := decode(r, &birthday); err != nil {
		writeBadRequest(w, "%v", err)
		return
	}
	birthday.ID = id
	birthday.HouseholdID = householdID
	if err := birthday.Validate(); err != nil {
		writeError(w, err)
		return
	}

	if err := s.repo.UpdateBirthday(r.Context(), birthday); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, birthday)
}

func (s *Server) handleBirthdayDelete(w http.ResponseWriter, r *http.Request) {
	householdID := authmw.HouseholdID(r.Context())

	id, err := pathID(r)
	if err != nil {
		writeBadRequest(w, "invalid birthday id")
		return
	}
	if err := s.repo.DeleteBirthday(r.Context(), householdID, id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleMealList(w http.ResponseWriter, r *http.Request) {
	householdID := authmw.HouseholdID(r.Context())

	meals, err := s.repo.ListMeals(r.Context(), householdID)
	if err != nil {
		writeError(w, err)
		return
	}
	if meals == nil {
		meals = []core.Meal{}
	}
	writeJSON(w, http.StatusOK, meals)
}

func (s *Server) handleMealCreate(w http.ResponseWriter, r *http.Request) {
	householdID := authmw.HouseholdID(r.Context())

	var meal core.Meal
	if err := decode(r, &meal); err != nil {
		writeBadRequest(w, "%v", err)
		return
	}
	meal.HouseholdID = householdID
	if err := meal.Validate(); err != nil {
		writeError(w, err)
		return
	}

	created, err := s.repo.CreateMeal(r.Context(), meal)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleMealUpdate(w http.ResponseWriter, r *http.Request) {
	householdID := authmw.HouseholdID(r.Context())

	id, err := pathID(r)
	if err != nil {
		writeBadRequest(w, "invalid meal id")
		return
	}

	var meal core.Meal
	if err := decode(r, &meal); err != nil {
		writeBadRequest(w, "%v", err)
		return
	}
	meal.ID = id
	meal.HouseholdID = householdID
	if err := meal.Validate(); err != nil {
		writeError(w, err)
		return
	}

	if err := s.repo.UpdateMeal(r.Context(), meal); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, meal)
}

func (s *Server) handleMealDelete(w http.ResponseWriter, r *http.Request) {
	householdID := authmw.HouseholdID(r.Context())

	id, err := pathID(r)
	if err != nil {
		writeBadRequest(w, "invalid meal id")
		return
	}
	if err := s.repo.DeleteMeal(r.Context(), householdID, id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleMealPlan(w http.ResponseWriter, r *http.Request) {
	householdID := authmw.HouseholdID(r.Context())

	start, err := core.ParseDate(r.URL.Query().Get("start"))
	if err != nil {
		writeError(w, err)
		return
	}
	end, err := core.ParseDate(r.URL.Query().Get("end"))
	if err != nil {
		writeError(w, err)
		return
	}

	plan, err := s.repo.MealPlanRange(r.Context(), householdID, start, end)
	if err != nil {
		writeError(w, err)
		return
	}
	if plan == nil {
		plan = []core.PlannedMeal{}
	}
	writeJSON(w, http.StatusOK, plan)
}

func (s *Server) handleMealPlanCreate(w http.ResponseWriter, r *http.Request) {
	householdID := authmw.HouseholdID(r.Context())

	var planned core.PlannedMeal
	if err := decode(r, &planned); err != nil {
		writeBadRequest(w, "%v", err)
		return
	}
	planned.HouseholdID = householdID

	date, err := core.ParseDate(planned.Date)
	if err != nil {
		writeError(w, err)
		return
	}
	planned.Date = date

	created, err := s.repo.CreatePlannedMeal(r.Context(), planned)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleMealPlanDelete(w http.ResponseWriter, r *http.Request) {
	householdID := authmw.HouseholdID(r.Context())

	id, err := pathID(r)
	if err != nil {
		writeBadRequest(w, "invalid meal plan id")
		return
	}
	if err := s.repo.DeletePlannedMeal(r.Context(), householdID, id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleGiftList(w http.ResponseWriter, r *http.Request) {
	householdID := authmw.HouseholdID(r.Context())

	gifts, err := s.repo.ListGifts(r.Context(), householdID)
	if err != nil {
		writeError(w, err)
		return
	}
	if gifts == nil {
		gifts = []core.ChristmasGift{}
	}
	writeJSON(w, http.StatusOK, gifts)
}

func (s *Server) handleGiftCreate(w http.ResponseWriter, r *http.Request) {
	householdID := authmw.HouseholdID(r.Context())

	var gift core.ChristmasGift
	if err := decode(r, &gift); err != nil {
		writeBadRequest(w, "%v", err)
		return
	}
	gift.HouseholdID = householdID

	created, err := s.repo.CreateGift(r.Context(), gift)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleGiftUpdate(w http.ResponseWriter, r *http.Request) {
	householdID := authmw.HouseholdID(r.Context())

	id, err := pathID(r)
	if err != nil {
		writeBadRequest(w, "invalid gift id")
		return
	}

	var gift core.ChristmasGift
	if err := decode(r, &gift); err != nil {
		writeBadRequest(w, "%v", err)
		return
	}
	gift.ID = id
	gift.HouseholdID = householdID

	if err := s.repo.UpdateGift(r.Context(), gift); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, gift)
}

type giftToggleRequest struct {
	Bought bool `json:"bought"`
}

// handleGiftToggle sets the bought flag to the state the client names.
func (s *Server) handleGiftToggle(w http.ResponseWriter, r *http.Request) {
	householdID := authmw.HouseholdID(r.Context())

	id, err := pathID(r)
	if err != nil {
		writeBadRequest(w, "invalid gift id")
		return
	}

	var req giftToggleRequest
	if err := decode(r, &req); err != nil {
		writeBadRequest(w, "%v", err)
		return
	}

	if err := s.repo.SetGiftBought(r.Context(), householdID, id, req.Bought); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true, "bought": req.Bought})
}

func (s *Server) handleGiftDelete(w http.ResponseWriter, r *http.Request) {
	householdID := authmw.HouseholdID(r.Context())

	id, err := pathID(r)
	if err != nil {
		writeBadRequest(w, "invalid gift id")
		return
	}
	if err := s.repo.DeleteGift(r.Context(), householdID, id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
