package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"winescan-app/internal/modules/recommend/usecase"
	scandomain "winescan-app/internal/modules/scan/domain"
)

type stubAI struct {
	text string
	err  error
}

func (s *stubAI) ExtractMetadata(ctx context.Context, imageData []byte, mediaType, ocrHint string) (*scandomain.AIResult, error) {
	return nil, errors.New("not implemented")
}

func (s *stubAI) Complete(ctx context.Context, task scandomain.AITask, userPrompt string) (*scandomain.AIResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	return scandomain.NewAIResult(userPrompt, s.text, 1, 1, "test"), nil
}

func (s *stubAI) ProviderName() string { return "stub" }

type envelope struct {
	Data    map[string]interface{} `json:"data"`
	IsValid bool                   `json:"is_valid"`
}

func TestRecommendHandler_HandleSommelier(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		body       string
		ai         *stubAI
		wantStatus int
		wantValid  bool
	}{
		{
			name:       "正常系: 検証成功",
			method:     http.MethodPost,
			body:       `{"query":"red for lamb"}`,
			ai:         &stubAI{text: `{"recommendations":[{"name":"Rioja"}],"confidence":0.9,"notes":[]}`},
			wantStatus: http.StatusOK,
			wantValid:  true,
		},
		{
			name:       "正常系: 検証失敗でもフォールバックを200で返す",
			method:     http.MethodPost,
			body:       `{"query":"red for lamb"}`,
			ai:         &stubAI{text: `not json`},
			wantStatus: http.StatusOK,
			wantValid:  false,
		},
		{
			name:       "正常系: AI失敗でもフォールバック",
			method:     http.MethodPost,
			body:       `{"dish":"oysters"}`,
			ai:         &stubAI{err: errors.New("down")},
			wantStatus: http.StatusOK,
			wantValid:  false,
		},
		{
			name:       "異常系: 依頼内容なし",
			method:     http.MethodPost,
			body:       `{"query":"  "}`,
			ai:         &stubAI{},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "異常系: 不正なメソッド",
			method:     http.MethodGet,
			ai:         &stubAI{},
			wantStatus: http.StatusMethodNotAllowed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewRecommendHandler(usecase.NewRecommendUseCase(tt.ai, nil, 0))
			req := httptest.NewRequest(tt.method, "/api/v1/recommend/sommelier", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()

			h.HandleSommelier(rec, req)

			require.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus != http.StatusOK {
				return
			}

			var resp envelope
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantValid, resp.IsValid)
			if !tt.wantValid {
				assert.Equal(t, 0.5, resp.Data["confidence"])
				assert.Len(t, resp.Data["notes"], 1)
				assert.Empty(t, resp.Data["recommendations"])
			}
		})
	}
}

func TestRecommendHandler_HandleForYou(t *testing.T) {
	ai := &stubAI{text: `{"picks":[{"name":"Barbaresco","why":"same grape","match":0.8}],"confidence":0.7}`}
	h := NewRecommendHandler(usecase.NewRecommendUseCase(ai, nil, 0))

	t.Run("正常系: ボディあり", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/recommend/for-you", strings.NewReader(`{"wines":[{"name":"Barolo"}]}`))
		rec := httptest.NewRecorder()
		h.HandleForYou(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var resp envelope
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.True(t, resp.IsValid)
	})

	t.Run("境界値: ボディなし", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/recommend/for-you", nil)
		rec := httptest.NewRecorder()
		h.HandleForYou(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("異常系: 不正なJSON", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/recommend/for-you", strings.NewReader(`{"wines":`))
		rec := httptest.NewRecorder()
		h.HandleForYou(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
