package registry

const (
	ViewCurrentTrending       = "ai_current_trending"
	ViewCategoryStats         = "ai_category_stats"
	ViewChannelStats          = "ai_channel_stats"
	ViewShortsVsRegular       = "ai_shorts_vs_regular"
	ViewTrendingVelocity      = "ai_trending_velocity"
	ViewAlgorithmFactors      = "ai_algorithm_factors"
	ViewEngagementCorrelation = "ai_engagement_correlation"
	ViewRankMovement          = "ai_rank_movement"
	ViewHourlyPattern         = "ai_hourly_pattern"
	ViewDailySummary          = "ai_daily_summary"
)

// Field aliases the model tends to produce for the two sortable concepts.
var fieldAliases = map[string]string{
	"rank":       "순위",
	"ranking":    "순위",
	"views":      "조회수",
	"view_count": "조회수",
	"viewCount":  "조회수",
}

func defaultViews() []ViewDescriptor {
	return []ViewDescriptor{
		{
			Name:        ViewCurrentTrending,
			Description: "현재 TOP 50 인기 동영상 (순위, 제목, 채널, 조회수, 좋아요, 참여율 등)",
			Columns: []string{
				"순위", "제목", "채널명", "카테고리", "조회수", "좋아요", "댓글수", "참여율_퍼센트",
				"쇼츠여부", "업로드후_시간", "시간당_조회수", "영상길이_초", "video_id", "channel_id",
				"thumbnail_url", "수집시점",
			},
			Tags: []string{"trending", "ranking"},
		},
		{
			Name:        ViewCategoryStats,
			Description: "카테고리별 통계 (영상수, 평균 조회수, 평균 참여율, 점유율)",
			Columns: []string{
				"카테고리", "영상수", "비율_퍼센트", "평균_조회수", "평균_좋아요", "평균_댓글",
				"평균_참여율_퍼센트", "평균_시간당조회수", "쇼츠_수", "쇼츠_비율_퍼센트", "평균_업로드후_시간",
			},
			SortCorrections: map[string]string{"조회수": "평균_조회수"},
			Tags:            []string{"category"},
		},
		{
			Name:        ViewChannelStats,
			Description: "채널별 트렌딩 성과 (구독자수, 트렌딩 횟수, 순위, 조회수)",
			Columns: []string{
				"채널명", "구독자수", "트렌딩_영상수", "트렌딩_일수", "최고_순위", "평균_조회수",
				"평균_좋아요", "평균_참여율_퍼센트", "최고_조회수", "채널_총영상수", "국가", "channel_id",
			},
			SortCorrections: map[string]string{"순위": "최고_순위", "조회수": "평균_조회수"},
			Tags:            []string{"channel"},
		},
		{
			Name:        ViewShortsVsRegular,
			Description: "콘텐츠 유형별 분석 (쇼츠 vs 일반)",
			Columns: []string{
				"콘텐츠_유형", "영상수", "평균_조회수", "평균_좋아요", "평균_댓글", "평균_참여율_퍼센트",
				"평균_순위", "평균_업로드후_시간",
			},
			SortCorrections: map[string]string{"순위": "평균_순위", "조회수": "평균_조회수"},
			Tags:            []string{"shorts", "comparison"},
		},
		{
			Name:        ViewTrendingVelocity,
			Description: "트렌딩 진입 속도 분석",
			Columns: []string{
				"속도_구간", "영상수", "평균_조회수", "평균_참여율_퍼센트", "평균_순위", "쇼츠_비율",
			},
			SortCorrections: map[string]string{"순위": "평균_순위", "조회수": "평균_조회수"},
			Tags:            []string{"velocity"},
		},
		{
			Name:        ViewAlgorithmFactors,
			Description: "알고리즘 영향 요인 분석",
			Columns: []string{
				"순위_구간", "영상수", "평균_업로드후_시간", "평균_시간당조회수", "평균_참여율_퍼센트",
				"평균_좋아요율_퍼센트", "평균_댓글율_퍼센트", "평균_조회수", "중앙값_조회수", "평균_구독자수", "쇼츠_비율",
			},
			SortCorrections: map[string]string{"조회수": "평균_조회수"},
			Tags:            []string{"algorithm"},
		},
		{
			Name:        ViewEngagementCorrelation,
			Description: "참여율과 순위 상관관계",
			Columns: []string{
				"참여율_구간", "평균_순위", "영상수", "평균_조회수", "최고_순위", "최저_순위",
			},
			SortCorrections: map[string]string{"순위": "평균_순위", "조회수": "평균_조회수"},
			Tags:            []string{"engagement"},
		},
		{
			Name:        ViewRankMovement,
			Description: "순위 변동 패턴 분석",
			Columns: []string{
				"변동_유형", "평균_이전순위", "평균_현재순위", "평균_변동폭", "영상수",
			},
			Tags: []string{"movement"},
		},
		{
			Name:        ViewHourlyPattern,
			Description: "시간별 트렌드 변화 패턴",
			Columns: []string{
				"시간", "평균_순위", "영상수", "평균_조회수", "평균_참여율_퍼센트", "신규_진입수",
			},
			SortCorrections: map[string]string{"순위": "평균_순위", "조회수": "평균_조회수"},
			Tags:            []string{"hourly", "trend"},
		},
		{
			Name:        ViewDailySummary,
			Description: "일별 요약 통계",
			Columns: []string{
				"날짜", "고유_영상수", "고유_채널수", "평균_조회수", "평균_참여율_퍼센트", "최다_카테고리",
			},
			SortCorrections: map[string]string{"조회수": "평균_조회수"},
			Tags:            []string{"daily", "trend"},
		},
	}
}
