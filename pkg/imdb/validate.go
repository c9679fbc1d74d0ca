package imdb

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	textUtils "github.com/shouni/go-utils/text"
)

// ----------------------------------------------------------------------
// 定数定義 (検証関連のみ)
// ----------------------------------------------------------------------

const (
	// DefaultMinContentLength は、有効なページとみなすHTMLの最小バイト数です。
	// これより短いページは、エラーページや空ページである可能性が高いと判断します。
	DefaultMinContentLength = 10000

	// summariesSelector は、あらすじページの本文コンテナを指すセレクターです。
	summariesSelector = "#summaries, [data-testid='sub-section-summaries']"
)

// challengeMarkers は、ボット対策のチャレンジページに含まれる特徴的な文字列です。
var challengeMarkers = []string{"awswaf", "challenge-container", "captcha"}

// deniedMarkers は、アクセス拒否ページに含まれる特徴的な文字列です。
var deniedMarkers = []string{"access denied"}

// contentKeywords は、正常なあらすじページに期待されるキーワードです。
var contentKeywords = []string{"imdb", "summary", "plot", "synopsis"}

// ----------------------------------------------------------------------
// チャレンジページ判定
// ----------------------------------------------------------------------

// IsChallengePage は、HTMLがボット対策のチャレンジページであるかを判定します。
func IsChallengePage(html string) bool {
	lower := strings.ToLower(html)
	for _, marker := range challengeMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// ----------------------------------------------------------------------
// コンテンツ検証
// ----------------------------------------------------------------------

// Validator は、取得したHTMLが保存に値する有効なページであるかを検証します。
type Validator struct {
	MinContentLength int // 有効とみなす最小バイト数 (0以下の場合はデフォルト値)
}

// NewValidator は、デフォルト設定の Validator を生成します。
func NewValidator() *Validator {
	return &Validator{MinContentLength: DefaultMinContentLength}
}

// Validate は、作品IDに対応するHTMLの有効性を検証し、無効な場合はエラーを返します。
// 検証は次の順で行います:
//  1. 長さチェック: 極端に短いページはエラーページとみなす
//  2. 負のチェック: チャレンジページ・アクセス拒否ページを除外
//  3. キーワードチェック: ID・あらすじ関連キーワードのいずれかを含むか
//
// キーワードが一つも見つからなくても、長さが十分であれば有効として扱います
// (ページ構成の変化でキーワードだけが失われるケースを許容するため)。
func (v *Validator) Validate(id, html string) error {
	minLength := v.MinContentLength
	if minLength <= 0 {
		minLength = DefaultMinContentLength
	}

	// 1. 長さチェック
	if len(html) < minLength {
		return fmt.Errorf("コンテンツが短すぎます (ID: %s, %dバイト < 最小%dバイト)", id, len(html), minLength)
	}

	lower := strings.ToLower(html)

	// 2. 負のチェック (チャレンジページ・アクセス拒否)
	if IsChallengePage(html) {
		return fmt.Errorf("チャレンジページを検出しました (ID: %s)", id)
	}
	for _, marker := range deniedMarkers {
		if strings.Contains(lower, marker) {
			return fmt.Errorf("アクセス拒否ページを検出しました (ID: %s)", id)
		}
	}

	// 3. キーワードチェック (警告レベル: 長さが十分なら許容)
	for _, kw := range append([]string{strings.ToLower(id)}, contentKeywords...) {
		if strings.Contains(lower, kw) {
			return nil
		}
	}
	return nil
}

// ProbeSummaries は、HTMLを解析してあらすじセクションの有無とページタイトルを返します。
// 本文コンテナが描画済みかどうかの確認に利用します (ブラウザ戦略の待機判定の補助)。
func ProbeSummaries(html string) (hasSummaries bool, title string, err error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return false, "", fmt.Errorf("HTML解析に失敗しました: %w", err)
	}

	title = textUtils.NormalizeText(doc.Find("title").First().Text())
	hasSummaries = doc.Find(summariesSelector).Length() > 0
	return hasSummaries, title, nil
}
